package programme

import (
	"errors"
	"fmt"

	"backstage/internal/logging"
)

// ErrUnknownAct is returned when an operation names an act id that has no
// itinerary entry.
var ErrUnknownAct = errors.New("unknown act")

// ErrFieldNotWritable is returned when a write targets any itinerary field
// other than the dressing room.
var ErrFieldNotWritable = errors.New("itinerary field not writable")

// LegacyItineraryAct is the merged logistics view of one act: the manually
// entered fields plus the schedule times derived from the act's timeline.
type LegacyItineraryAct map[string]string

// LegacyItinerary maps act ids onto their merged logistics view.
type LegacyItinerary map[string]LegacyItineraryAct

// BuildLegacyItinerary assembles the merged itinerary view. Every stored
// entry is included, so manually entered dressing rooms stay visible even
// when the act has dropped off the feed; acts still in the feed contribute
// their name and timeline-derived fields on top.
func (s *Service) BuildLegacyItinerary() LegacyItinerary {
	actsGuard := s.acts.AcquireRead()
	defer actsGuard.Release()
	itineraryGuard := s.itinerary.AcquireRead()
	defer itineraryGuard.Release()

	acts := *actsGuard.Doc()
	stored := *itineraryGuard.Doc()

	result := make(LegacyItinerary, len(stored))
	for key, entry := range stored {
		result[key] = copyItineraryEntry(entry)
	}
	for _, act := range acts {
		merged, ok := result[act.Key()]
		if !ok {
			merged = copyItineraryEntry(nil)
			result[act.Key()] = merged
		}
		applyActSchedule(merged, act)
	}
	return result
}

// ItineraryFor returns the merged itinerary view of a single act, or
// ErrUnknownAct when no itinerary entry exists for the act id.
func (s *Service) ItineraryFor(actKey string) (LegacyItineraryAct, error) {
	actsGuard := s.acts.AcquireRead()
	defer actsGuard.Release()
	itineraryGuard := s.itinerary.AcquireRead()
	defer itineraryGuard.Release()

	stored, ok := (*itineraryGuard.Doc())[actKey]
	if !ok {
		return nil, fmt.Errorf("itinerary for act %s: %w", actKey, ErrUnknownAct)
	}
	merged := copyItineraryEntry(stored)
	for _, act := range *actsGuard.Doc() {
		if act.Key() == actKey {
			applyActSchedule(merged, act)
			break
		}
	}
	return merged, nil
}

// SetDressingRoom assigns an act's dressing room and persists the itinerary.
// Only the dressing room field is writable; everything else in the merged
// view is derived data. Any act with an itinerary entry can be updated, even
// one currently missing from the feed.
func (s *Service) SetDressingRoom(actKey, field, value string) error {
	if field != DressingRoomField {
		return fmt.Errorf("set %q on act %s: %w", field, actKey, ErrFieldNotWritable)
	}

	err := s.itinerary.Update(func(doc *Itinerary) error {
		entry, ok := (*doc)[actKey]
		if !ok {
			return fmt.Errorf("set dressing room for act %s: %w", actKey, ErrUnknownAct)
		}
		entry[DressingRoomField] = value
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownAct) {
			return err
		}
		return fmt.Errorf("persist itinerary: %w", err)
	}
	s.logger.Info("assigned dressing room",
		logging.String(logging.FieldActID, actKey),
		logging.String("dressing_room", value))
	return nil
}

// copyItineraryEntry builds a mutable merged view seeded from a stored entry,
// with the dressing room defaulted when unset.
func copyItineraryEntry(stored ItineraryEntry) LegacyItineraryAct {
	merged := LegacyItineraryAct{DressingRoomField: DressingRoomNone}
	for key, value := range stored {
		merged[key] = value
	}
	return merged
}

// applyActSchedule layers an act's name and timeline-derived fields over a
// merged view. These fields are computed fresh on every read so they can
// never go stale.
func applyActSchedule(merged LegacyItineraryAct, act Act) {
	merged["name"] = act.Name
	for _, event := range act.Timeline {
		key, ok := legacyItineraryKeys[event.Type]
		if !ok {
			continue
		}
		merged[key] = LegacyTime(event.Start)
	}
}
