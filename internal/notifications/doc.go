// Package notifications pushes operational events to the crew's phones via
// ntfy. Refresh failures during the festival need to reach someone who can
// act on them before the next show.
package notifications
