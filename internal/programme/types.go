package programme

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Timeline event categories from the production planner feed.
const (
	EventShowtime   = "Showtime"
	EventGetIn      = "Get in"
	EventSoundcheck = "Soundcheck"
	EventLinecheck  = "Linecheck"
)

// ID is an opaque act identifier. The feed serializes it as either a JSON
// number or a string; both normalize to the string form used as document key
// everywhere.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if _, err := strconv.ParseInt(trimmed, 10, 64); err != nil {
		return fmt.Errorf("act id %q is neither string nor integer", trimmed)
	}
	*id = ID(trimmed)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// TimelineEvent is one scheduled slot for an act: a show or a logistics event
// such as get-in or soundcheck. Start and End are local-time strings in the
// feed's "YYYY-MM-DD HH:MM:SS" format.
type TimelineEvent struct {
	Type  string `json:"type"`
	Stage string `json:"stage"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Act is one performer entry from the authoritative act feed.
type Act struct {
	ID       ID              `json:"id"`
	Name     string          `json:"name"`
	Timeline []TimelineEvent `json:"timeline"`
}

// Key returns the string form of the act's id used as document key.
func (a Act) Key() string { return a.ID.String() }

// CacheSchemaMajor is the expected major schema version of the programme
// cache document. Documents with a lower major version are discarded and
// rebuilt from the default.
const CacheSchemaMajor = 2

// Entry is the cached description state for one act.
type Entry struct {
	DescriptionHTML      *string `json:"description_html"`
	NameMatchedToWebsite bool    `json:"name_matched_to_website"`
}

// Cache is the persisted programme cache document.
type Cache struct {
	SchemaVersion string           `json:"schema_version"`
	FetchTime     string           `json:"fetch_time,omitempty"`
	Acts          map[string]Entry `json:"acts"`
}

// DefaultCache returns an empty programme cache at the current schema version.
func DefaultCache() Cache {
	return Cache{
		SchemaVersion: fmt.Sprintf("%d.0", CacheSchemaMajor),
		Acts:          map[string]Entry{},
	}
}

// ValidCacheSchema reports whether a loaded cache document's major schema
// version is compatible. Incompatible documents are treated as absent.
func ValidCacheSchema(cache Cache) bool {
	major, _, found := strings.Cut(cache.SchemaVersion, ".")
	if !found {
		return false
	}
	value, err := strconv.Atoi(major)
	if err != nil {
		return false
	}
	return value >= CacheSchemaMajor
}

// DressingRoomField is the single writable itinerary field.
const DressingRoomField = "dressing_room"

// DressingRoomNone is the sentinel for an unassigned dressing room.
const DressingRoomNone = "None"

// ItineraryEntry is the free-form logistics mapping for one act.
type ItineraryEntry map[string]string

// Itinerary is the persisted itinerary document, keyed by act id.
type Itinerary map[string]ItineraryEntry

// legacyItineraryKeys maps feed timeline event types onto the read-only
// itinerary fields computed at read time.
var legacyItineraryKeys = map[string]string{
	EventGetIn:      "get_in",
	EventSoundcheck: "soundcheck",
	EventLinecheck:  "linecheck",
}
