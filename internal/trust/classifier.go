// Package trust classifies free-text source identifiers into discrete
// trust tiers. Classification is a pure function of the identifier
// string: no I/O, no randomness, no learned state, so re-running a
// resolution over identical candidates is deterministic.
package trust

import (
	"net/url"
	"strings"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// Official manufacturer and government domains. A match anywhere in the
// normalized identifier promotes the source to TierHigh.
var highPatterns = []string{
	"toyota.com", "honda.com", "ford.com", "gm.com", "chevrolet.com",
	"nissanusa.com", "nissan-global.com", "subaru.com", "mazdausa.com",
	"hyundaiusa.com", "kia.com", "vw.com", "volkswagen.com", "bmwusa.com",
	"mbusa.com", "mercedes-benz.com", "audiusa.com", "volvocars.com",
	"stellantis.com", "ram trucks", "lexus.com", "acura.com",
	"nhtsa.gov", "epa.gov", "fueleconomy.gov",
	"owner's manual", "owners manual", "press kit", "media.gm",
}

// Established third-party automotive references.
var mediumPatterns = []string{
	"edmunds", "kbb.com", "kelley blue book", "caranddriver",
	"motortrend", "cars.com", "jdpower", "consumerreports",
	"automobile-catalog", "carfolio", "carspecs", "autoblog",
	"truecar", "nadaguides", "carfax",
}

// Marketplaces, forums, and user-generated content.
var lowPatterns = []string{
	"craigslist", "ebay", "facebook", "reddit", "quora", "forum",
	"forums.", "autotrader", "cargurus", "wiki", "answers.com",
	"youtube", "blogspot", "wordpress",
}

// Classify maps a source identifier (name or URL) to a trust tier. It
// is total: every string maps to a tier, defaulting to TierUnknown.
func Classify(identifier string) model.TrustTier {
	norm := normalize(identifier)
	if norm == "" {
		return model.TierUnknown
	}

	for _, p := range highPatterns {
		if strings.Contains(norm, p) {
			return model.TierHigh
		}
	}
	for _, p := range mediumPatterns {
		if strings.Contains(norm, p) {
			return model.TierMedium
		}
	}
	for _, p := range lowPatterns {
		if strings.Contains(norm, p) {
			return model.TierLow
		}
	}

	return model.TierUnknown
}

// ClassifyAll assigns a tier to each candidate in place and returns the
// slice for chaining.
func ClassifyAll(candidates []model.CandidateObservation) []model.CandidateObservation {
	for i := range candidates {
		candidates[i].Tier = Classify(candidates[i].SourceID)
	}
	return candidates
}

// normalize lowercases the identifier and, when it parses as a URL,
// reduces it to host plus path so scheme and query noise never affect
// classification.
func normalize(identifier string) string {
	s := strings.ToLower(strings.TrimSpace(identifier))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return strings.TrimPrefix(u.Host, "www.") + u.Path
		}
	}
	return strings.TrimPrefix(s, "www.")
}
