// Command backstage is the operator CLI for the backstage daemon.
package main
