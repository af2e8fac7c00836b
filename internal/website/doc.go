// Package website is a client for the public festival website's API. It
// serves the act descriptions shown to performers and crew.
package website
