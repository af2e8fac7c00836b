// Package ical renders the festival programme as an iCalendar feed so crew
// members can subscribe to the show schedule from their phone's calendar.
package ical
