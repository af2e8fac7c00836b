package programme

import (
	"time"
)

// eventTimeLayout is the textual date-time format used by the feed.
const eventTimeLayout = "2006-01-02 15:04:05"

// eventTimeZone is the fixed offset the feed's local times are interpreted
// in. The festival always runs during Dutch summer time.
var eventTimeZone = time.FixedZone("UTC+2", 2*60*60)

// festivalDayStartHour is when a new festival day begins: shows past midnight
// belong to the preceding evening until 06:00.
const festivalDayStartHour = 6

// legacyDays maps weekdays onto the Dutch names used throughout the legacy
// programme format.
var legacyDays = map[time.Weekday]string{
	time.Monday:    "maandag",
	time.Tuesday:   "dinsdag",
	time.Wednesday: "woensdag",
	time.Thursday:  "donderdag",
	time.Friday:    "vrijdag",
	time.Saturday:  "zaterdag",
	time.Sunday:    "zondag",
}

// ParseEventTime parses a feed date-time string at the fixed UTC+2 offset.
func ParseEventTime(value string) (time.Time, error) {
	return time.ParseInLocation(eventTimeLayout, value, eventTimeZone)
}

// LegacyTime extracts the "HH:MM" portion of a feed date-time string.
func LegacyTime(value string) string {
	if len(value) < 16 {
		return ""
	}
	return value[11:16]
}

// FestivalDay returns the Dutch weekday name of the festival day a timepoint
// belongs to, with the day boundary at 06:00 instead of midnight.
func FestivalDay(timepoint time.Time) string {
	shifted := timepoint.Add(-festivalDayStartHour * time.Hour)
	return legacyDays[shifted.Weekday()]
}

// showSortKey orders shows chronologically within the festival: first by
// festival day, then by minutes elapsed since the 06:00 day boundary. Using a
// plain sortable key avoids the comparator edge cases around shows crossing
// midnight.
func showSortKey(startUTC int64) (festivalDay int64, minuteOfDay int64) {
	shifted := startUTC - festivalDayStartHour*3600
	return shifted / 86400, (shifted % 86400) / 60
}
