// Package feed fetches the authoritative act list from the production
// planner's export endpoint.
package feed
