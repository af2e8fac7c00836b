// Package match pairs internally-tracked act names with act listings scraped
// from the public festival website.
//
// Matching is fuzzy: names are case-folded with the Dutch locale, stripped of
// friends-night production tags, and compared with a sequence-similarity
// ratio. A best candidate below the acceptance threshold yields an explicit
// unmatched outcome rather than an error.
package match
