package programme

import (
	"sort"
	"strings"
)

// FallbackDescription is shown when no website description could be fetched
// or matched for an act.
const FallbackDescription = "Sorry, we konden de beschrijving niet ophalen. :-(\n Laat je verrassen!"

// LegacyShow is one Showtime slot in the legacy programme format.
type LegacyShow struct {
	Stage    string `json:"stage"`
	Start    string `json:"start"`
	End      string `json:"end"`
	StartUTC int64  `json:"start_utc"`
	EndUTC   int64  `json:"end_utc"`
	Day      string `json:"day"`
}

// LegacyAct is one act in the legacy programme format, still consumed by the
// data entry frontend and the backstage TV.
type LegacyAct struct {
	Name                 string       `json:"name"`
	Shows                []LegacyShow `json:"shows"`
	DescriptionHTML      string       `json:"description_html"`
	Description          string       `json:"description"`
	DescriptionAvailable bool         `json:"description_available"`
}

// LegacyProgramme is the merged read model served to clients. It is
// assembled per request and never persisted.
type LegacyProgramme struct {
	Acts      map[string]LegacyAct `json:"acts"`
	FetchTime string               `json:"fetch_time,omitempty"`
}

// SortedKeys returns the act keys in ascending order of each act's earliest
// show start. Acts without shows sort last; exact ties keep a stable order by
// key.
func (p *LegacyProgramme) SortedKeys() []string {
	keys := make([]string, 0, len(p.Acts))
	for key := range p.Acts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := earliestStart(p.Acts[keys[i]]), earliestStart(p.Acts[keys[j]])
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

func earliestStart(act LegacyAct) int64 {
	const noShows = int64(1) << 62
	earliest := noShows
	for _, show := range act.Shows {
		if show.StartUTC < earliest {
			earliest = show.StartUTC
		}
	}
	return earliest
}

// buildLegacyAct assembles the legacy view of one act from the feed entry and
// its cached description. Missing or degenerate upstream data degrades to the
// fallback description, never to an error.
func buildLegacyAct(act Act, cached Entry, found bool) LegacyAct {
	htmlDescription := FallbackDescription
	if found && cached.DescriptionHTML != nil {
		htmlDescription = *cached.DescriptionHTML
	}

	shows := make([]LegacyShow, 0, len(act.Timeline))
	for _, event := range act.Timeline {
		if event.Type != EventShowtime {
			continue
		}
		show := LegacyShow{
			Stage: strings.ToUpper(event.Stage),
			Start: LegacyTime(event.Start),
			End:   LegacyTime(event.End),
		}
		if start, err := ParseEventTime(event.Start); err == nil {
			show.StartUTC = start.Unix()
			show.Day = FestivalDay(start)
		}
		if end, err := ParseEventTime(event.End); err == nil {
			show.EndUTC = end.Unix()
		}
		shows = append(shows, show)
	}
	sort.SliceStable(shows, func(i, j int) bool {
		di, mi := showSortKey(shows[i].StartUTC)
		dj, mj := showSortKey(shows[j].StartUTC)
		if di != dj {
			return di < dj
		}
		return mi < mj
	})

	return LegacyAct{
		Name:                 act.Name,
		Shows:                shows,
		DescriptionHTML:      htmlDescription,
		Description:          HTMLToText(htmlDescription),
		DescriptionAvailable: htmlDescription != FallbackDescription,
	}
}

// matchesStage reports whether any of the act's shows happen on the requested
// stage. Stages are compared in their upper-cased legacy form.
func matchesStage(shows []LegacyShow, stage string) bool {
	for _, show := range shows {
		if show.Stage == stage {
			return true
		}
	}
	return false
}
