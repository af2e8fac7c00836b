// Package programme owns the three persisted festival documents (acts,
// programme cache, itinerary) and assembles the merged views served to
// clients.
//
// The acts list is the authoritative feed from the production planner, the
// programme cache holds website-sourced act descriptions, and the itinerary
// holds per-act backstage logistics. Reads that span documents take the store
// guards in a fixed order (acts, programme, itinerary) so they can never
// deadlock against writers.
package programme
