// Package api defines the transport types shared between the daemon's HTTP
// server and its clients.
package api
