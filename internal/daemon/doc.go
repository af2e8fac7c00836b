// Package daemon runs the backstage service: it owns the HTTP API, the
// periodic refresh jobs, and single-instance enforcement.
package daemon
