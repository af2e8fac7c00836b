// Package refresh runs the periodic jobs that keep the persisted documents in
// sync with the production planner feed and the public website.
package refresh
