package model

// TrustTier is the discrete reliability classification of a source.
type TrustTier string

const (
	TierHigh    TrustTier = "high"
	TierMedium  TrustTier = "medium"
	TierLow     TrustTier = "low"
	TierUnknown TrustTier = "unknown"
)

// tierWeights maps each tier to its fixed evidence weight.
var tierWeights = map[TrustTier]float64{
	TierHigh:    1.0,
	TierMedium:  0.7,
	TierLow:     0.4,
	TierUnknown: 0.2,
}

// Weight returns the numeric evidence weight for the tier.
// Unrecognized tiers weigh the same as TierUnknown.
func (t TrustTier) Weight() float64 {
	if w, ok := tierWeights[t]; ok {
		return w
	}
	return tierWeights[TierUnknown]
}

// AtLeast reports whether the tier is at or above the given tier.
func (t TrustTier) AtLeast(min TrustTier) bool {
	return t.Weight() >= min.Weight()
}

// tierRank orders tiers for comparisons where equal weights would be ambiguous.
var tierRank = map[TrustTier]int{
	TierUnknown: 0,
	TierLow:     1,
	TierMedium:  2,
	TierHigh:    3,
}

// HigherTier returns the more trusted of two tiers.
func HigherTier(a, b TrustTier) TrustTier {
	if tierRank[a] >= tierRank[b] {
		return a
	}
	return b
}
