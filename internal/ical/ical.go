package ical

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"backstage/internal/programme"
)

const (
	prodID        = "-//amigotext//NONSGML amigotext.app.event//EN"
	dateTimeUTC   = "20060102T150405Z"
	defaultOffset = -6
)

// DefaultDays is the day filter applied when a request does not name any.
var DefaultDays = []string{"woensdag", "donderdag", "vrijdag", "zaterdag", "zondag"}

// ReminderDefinition describes one alarm relative to a show timestamp:
// the referenced timestamp field plus an offset in minutes.
type ReminderDefinition struct {
	Reference     string
	OffsetMinutes int
}

// ParseReminderDefinition parses the "reference.offset" URL parameter form,
// for example "start_utc.-10".
func ParseReminderDefinition(value string) (ReminderDefinition, error) {
	reference, offset, found := strings.Cut(value, ".")
	if !found {
		return ReminderDefinition{}, fmt.Errorf("reminder definition %q: missing offset", value)
	}
	minutes, err := strconv.Atoi(offset)
	if err != nil {
		return ReminderDefinition{}, fmt.Errorf("reminder definition %q: %w", value, err)
	}
	return ReminderDefinition{Reference: reference, OffsetMinutes: minutes}, nil
}

// DefaultReminders is the alarm set used when a request defines none: six
// minutes before both the start and the end of each show.
func DefaultReminders() []ReminderDefinition {
	return []ReminderDefinition{
		{Reference: "start_utc", OffsetMinutes: defaultOffset},
		{Reference: "end_utc", OffsetMinutes: defaultOffset},
	}
}

// Options controls calendar rendering.
type Options struct {
	Host            string
	Days            []string
	Reminders       []ReminderDefinition
	EnableReminders bool
}

// Render builds the iCalendar document for the given programme and itinerary.
// Acts are emitted in schedule order; shows outside the day filter are
// skipped. A reminder referencing an unknown timestamp field is an error so
// the HTTP layer can reject the request.
func Render(prog *programme.LegacyProgramme, itinerary programme.LegacyItinerary, opts Options) ([]byte, error) {
	days := opts.Days
	if len(days) == 0 {
		days = DefaultDays
	}
	reminders := opts.Reminders
	if len(reminders) == 0 {
		reminders = DefaultReminders()
	}

	var builder strings.Builder
	writeLine(&builder, "BEGIN:VCALENDAR")
	writeLine(&builder, "VERSION:2.0")
	writeLine(&builder, "PRODID:"+escapeText(prodID))

	for _, key := range prog.SortedKeys() {
		act := prog.Acts[key]
		for _, show := range act.Shows {
			if !containsDay(days, show.Day) {
				continue
			}
			if err := writeEvent(&builder, key, act, show, itinerary, reminders, opts); err != nil {
				return nil, err
			}
		}
	}

	writeLine(&builder, "END:VCALENDAR")
	return []byte(builder.String()), nil
}

func writeEvent(builder *strings.Builder, key string, act programme.LegacyAct, show programme.LegacyShow, itinerary programme.LegacyItinerary, reminders []ReminderDefinition, opts Options) error {
	writeLine(builder, "BEGIN:VEVENT")
	writeLine(builder, "DTSTART:"+time.Unix(show.StartUTC, 0).UTC().Format(dateTimeUTC))
	writeLine(builder, "DTEND:"+time.Unix(show.EndUTC, 0).UTC().Format(dateTimeUTC))
	writeLine(builder, fmt.Sprintf("UID:%s-%d@%s", key, show.StartUTC, opts.Host))
	writeLine(builder, "SUMMARY:"+escapeText(act.Name))
	writeLine(builder, "DESCRIPTION:"+escapeText(act.Description))
	writeLine(builder, "LOCATION:"+escapeText(eventLocation(key, show, itinerary)))

	if opts.EnableReminders {
		for _, reminder := range reminders {
			trigger, err := reminderTrigger(show, reminder)
			if err != nil {
				return err
			}
			alarmUID := uuid.NewString()
			writeLine(builder, "BEGIN:VALARM")
			writeLine(builder, "TRIGGER;VALUE=DATE-TIME:"+trigger.Format(dateTimeUTC))
			writeLine(builder, "ACTION:DISPLAY")
			writeLine(builder, "DESCRIPTION:Reminder")
			writeLine(builder, "UID:"+alarmUID)
			writeLine(builder, "X-WR-ALARMUID:"+alarmUID)
			writeLine(builder, "END:VALARM")
		}
	}

	writeLine(builder, "END:VEVENT")
	return nil
}

// eventLocation names the act's dressing room when one is assigned, otherwise
// just the stage.
func eventLocation(key string, show programme.LegacyShow, itinerary programme.LegacyItinerary) string {
	room := itinerary[key][programme.DressingRoomField]
	if room != "" && room != programme.DressingRoomNone {
		return fmt.Sprintf("Dressing room %s (%s)", room, show.Stage)
	}
	return show.Stage
}

func reminderTrigger(show programme.LegacyShow, reminder ReminderDefinition) (time.Time, error) {
	var reference int64
	switch reminder.Reference {
	case "start_utc":
		reference = show.StartUTC
	case "end_utc":
		reference = show.EndUTC
	default:
		return time.Time{}, fmt.Errorf("timestamp key %q doesn't exist", reminder.Reference)
	}
	return time.Unix(reference, 0).UTC().Add(time.Duration(reminder.OffsetMinutes) * time.Minute), nil
}

func containsDay(days []string, day string) bool {
	for _, candidate := range days {
		if candidate == day {
			return true
		}
	}
	return false
}

// escapeText escapes a property value per RFC 5545 section 3.3.11.
func escapeText(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return replacer.Replace(value)
}

// writeLine appends one content line, folded at 75 octets per RFC 5545
// section 3.1, with CRLF line endings.
func writeLine(builder *strings.Builder, line string) {
	const limit = 75
	bytes := []byte(line)
	first := true
	for len(bytes) > 0 {
		width := limit
		if !first {
			width = limit - 1
		}
		if width > len(bytes) {
			width = len(bytes)
		}
		// Do not split in the middle of a UTF-8 sequence.
		for width < len(bytes) && bytes[width]&0xC0 == 0x80 {
			width--
		}
		if !first {
			builder.WriteString(" ")
		}
		builder.Write(bytes[:width])
		builder.WriteString("\r\n")
		bytes = bytes[width:]
		first = false
	}
	if first {
		builder.WriteString("\r\n")
	}
}
