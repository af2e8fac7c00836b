// Package apiclient is the HTTP client the operator CLI uses to talk to a
// running backstage daemon.
package apiclient
