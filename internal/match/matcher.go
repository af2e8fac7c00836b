package match

import (
	"log/slog"
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"backstage/internal/logging"
)

// friendsNightTag matches a trailing friends-night production marker on an act
// name: an "@", "[" or "(" introducer followed by "vrienden", optionally
// "avond", and optional closing brackets, case-insensitive.
var friendsNightTag = regexp.MustCompile(`(?i) *[@\[(] *vrienden *(avond)*[\])]*$`)

// StripFriendsNightTag removes a trailing friends-night tag from an act name.
// Names without such a tag are returned unchanged.
func StripFriendsNightTag(name string) string {
	return friendsNightTag.ReplaceAllString(name, "")
}

// WebsiteAct is one act listing scraped from the public festival website.
type WebsiteAct struct {
	Title           string
	DescriptionHTML string
}

// Outcome records the matching result for one act. An unmatched act carries no
// description; the read path substitutes a fallback text.
type Outcome struct {
	Matched         bool
	DescriptionHTML *string
}

// CorrectedNameLookup resolves a manually corrected website description for an
// act that could not be matched automatically. It returns false when no
// correction is available.
type CorrectedNameLookup func(actKey string) (string, bool)

// Matcher applies the fuzzy name-matching policy.
type Matcher struct {
	threshold float64
	lookup    CorrectedNameLookup
	folder    cases.Caser
	logger    *slog.Logger
}

// Option customises a Matcher.
type Option func(*Matcher)

// WithCorrectedNameLookup installs the corrected-name hook consulted for acts
// below the acceptance threshold.
func WithCorrectedNameLookup(lookup CorrectedNameLookup) Option {
	return func(m *Matcher) {
		if lookup != nil {
			m.lookup = lookup
		}
	}
}

// New constructs a matcher with the given acceptance threshold.
func New(threshold float64, logger *slog.Logger, opts ...Option) *Matcher {
	m := &Matcher{
		threshold: threshold,
		// No corrections exist yet; the hook is an extension point for a
		// future manual-override store.
		lookup: func(string) (string, bool) { return "", false },
		folder: cases.Lower(language.Dutch),
		logger: logging.NewComponentLogger(logger, "match"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Best returns the website act whose title is most similar to name, along
// with the similarity ratio. The boolean is false when candidates is empty.
func (m *Matcher) Best(name string, candidates []WebsiteAct) (WebsiteAct, float64, bool) {
	folded := m.folder.String(name)
	var best WebsiteAct
	bestRatio := -1.0
	for _, candidate := range candidates {
		ratio := Ratio(folded, m.folder.String(candidate.Title))
		if ratio > bestRatio {
			best = candidate
			bestRatio = ratio
		}
	}
	if bestRatio < 0 {
		return WebsiteAct{}, 0, false
	}
	return best, bestRatio, true
}

// Match resolves the description for one act. The friends-night tag is
// stripped before comparison. Below-threshold acts consult the corrected-name
// hook and otherwise come back as an explicit unmatched outcome.
func (m *Matcher) Match(actKey, actName string, candidates []WebsiteAct) Outcome {
	name := StripFriendsNightTag(actName)

	best, ratio, ok := m.Best(name, candidates)
	if !ok || ratio < m.threshold {
		if corrected, found := m.lookup(actKey); found {
			return Outcome{Matched: true, DescriptionHTML: &corrected}
		}
		m.logger.Error("could not match act to any of website's acts",
			logging.String(logging.FieldActID, actKey),
			logging.String("act_name", name),
			logging.Float64("best_ratio", ratio))
		return Outcome{}
	}

	description := best.DescriptionHTML
	return Outcome{Matched: true, DescriptionHTML: &description}
}
