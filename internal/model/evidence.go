package model

// EvidenceScore is the trust-weighted aggregate over all well-formed
// candidates for one field. WeightedScore is monotonically non-decreasing
// as corroborating candidates are added; a lone low-trust source can
// never exceed the low-tier weight on its own.
type EvidenceScore struct {
	WeightedScore float64   `json:"weighted_score"`
	SourceCount   int       `json:"source_count"`
	HighestTier   TrustTier `json:"highest_tier"`
	Sources       []string  `json:"source_list"`
	// Outliers lists sources whose values were excluded from the score
	// and from clustering but retained for audit.
	Outliers []string `json:"outliers,omitempty"`
}

// Cluster groups numeric candidates whose values fall within a relative
// tolerance of each other.
type Cluster struct {
	Centroid    float64                `json:"centroid"`
	Low         float64                `json:"low"`
	High        float64                `json:"high"`
	TrustWeight float64                `json:"trust_weight"`
	Members     []CandidateObservation `json:"-"`
}

// Size returns the number of member candidates.
func (c Cluster) Size() int { return len(c.Members) }
