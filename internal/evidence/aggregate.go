// Package evidence aggregates candidate observations for one field into
// a trust-weighted evidence score, clustering numeric values and
// excluding statistical outliers from the score while retaining them
// for audit.
package evidence

import (
	"math"
	"sort"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// Options tunes clustering and outlier detection.
type Options struct {
	// Tolerance is the relative spread within which two numeric values
	// belong to the same cluster.
	Tolerance float64
	// OutlierSigma is the multiple of the population standard deviation
	// beyond which a singleton cluster is excluded from the score.
	OutlierSigma float64
}

// DefaultOptions returns the standard aggregation parameters.
func DefaultOptions() Options {
	return Options{Tolerance: 0.15, OutlierSigma: 2.0}
}

// Result pairs the evidence score with the surviving clusters so
// decision rules do not recompute the grouping.
type Result struct {
	Score    model.EvidenceScore
	Clusters []model.Cluster
	// Outliers holds the excluded candidates themselves; their sources
	// also appear in Score.Outliers and Score.Sources.
	Outliers []model.CandidateObservation
}

// Aggregate computes the evidence score for a set of candidates.
// Candidates must already carry their trust tier. Numeric candidates
// are clustered and outlier-checked; non-numeric candidates contribute
// weight directly. The weighted score excludes outliers, but the source
// count and source list cover every candidate so the audit trail stays
// complete.
func Aggregate(candidates []model.CandidateObservation, opts Options) Result {
	res := Result{
		Score: model.EvidenceScore{HighestTier: model.TierUnknown},
	}
	if len(candidates) == 0 {
		return res
	}

	res.Clusters = ClusterNumeric(candidates, opts.Tolerance)
	res.Outliers = detectOutliers(candidates, res.Clusters, opts.OutlierSigma)
	res.Clusters = dropOutlierClusters(res.Clusters, res.Outliers)

	excluded := make(map[string]bool, len(res.Outliers))
	for _, o := range res.Outliers {
		excluded[o.SourceID] = true
		res.Score.Outliers = append(res.Score.Outliers, o.SourceID)
	}

	for _, c := range candidates {
		res.Score.SourceCount++
		res.Score.Sources = append(res.Score.Sources, c.SourceID)
		if excluded[c.SourceID] {
			continue
		}
		res.Score.WeightedScore += c.Tier.Weight() * c.EffectiveConfidence()
		res.Score.HighestTier = model.HigherTier(res.Score.HighestTier, c.Tier)
	}

	return res
}

// ClusterNumeric groups numeric candidates within a relative tolerance.
// A candidate joins the cluster whose current centroid it is closest
// to; on an exact distance tie it joins the cluster with higher
// aggregate trust weight. Non-numeric candidates are skipped.
func ClusterNumeric(candidates []model.CandidateObservation, tolerance float64) []model.Cluster {
	type member struct {
		cand  model.CandidateObservation
		value float64
	}
	var numeric []member
	for _, c := range candidates {
		if v, ok := c.NumericValue(); ok {
			numeric = append(numeric, member{cand: c, value: v})
		}
	}
	if len(numeric) == 0 {
		return nil
	}

	// Sort by value (then source for a stable order) so clustering is
	// independent of input order.
	sort.Slice(numeric, func(i, j int) bool {
		if numeric[i].value != numeric[j].value {
			return numeric[i].value < numeric[j].value
		}
		return numeric[i].cand.SourceID < numeric[j].cand.SourceID
	})

	var clusters []model.Cluster
	for _, m := range numeric {
		best := -1
		bestDist := math.MaxFloat64
		for i, cl := range clusters {
			ref := math.Abs(cl.Centroid)
			if ref == 0 {
				ref = 1
			}
			if math.Abs(m.value-cl.Centroid)/ref > tolerance {
				continue
			}
			dist := math.Abs(m.value - cl.Centroid)
			switch {
			case dist < bestDist:
				best, bestDist = i, dist
			case dist == bestDist && best >= 0 && cl.TrustWeight > clusters[best].TrustWeight:
				best = i
			}
		}

		w := m.cand.Tier.Weight() * m.cand.EffectiveConfidence()
		if best < 0 {
			clusters = append(clusters, model.Cluster{
				Centroid:    m.value,
				Low:         m.value,
				High:        m.value,
				TrustWeight: w,
				Members:     []model.CandidateObservation{m.cand},
			})
			continue
		}

		cl := &clusters[best]
		cl.Members = append(cl.Members, m.cand)
		cl.TrustWeight += w
		cl.Low = math.Min(cl.Low, m.value)
		cl.High = math.Max(cl.High, m.value)
		cl.Centroid = centroidOf(cl.Members)
	}

	return clusters
}

// LargestCluster returns the cluster with the most members, breaking
// ties by aggregate trust weight. Returns false when there are none.
func LargestCluster(clusters []model.Cluster) (model.Cluster, bool) {
	if len(clusters) == 0 {
		return model.Cluster{}, false
	}
	best := clusters[0]
	for _, cl := range clusters[1:] {
		if cl.Size() > best.Size() || (cl.Size() == best.Size() && cl.TrustWeight > best.TrustWeight) {
			best = cl
		}
	}
	return best, true
}

// detectOutliers flags candidates in singleton clusters whose value
// deviates from the largest cluster's centroid by more than sigmaMult
// population standard deviations.
func detectOutliers(candidates []model.CandidateObservation, clusters []model.Cluster, sigmaMult float64) []model.CandidateObservation {
	if len(clusters) < 2 {
		return nil
	}
	largest, _ := LargestCluster(clusters)
	if largest.Size() < 2 {
		// No dominant cluster to measure deviation against.
		return nil
	}

	var values []float64
	for _, c := range candidates {
		if v, ok := c.NumericValue(); ok {
			values = append(values, v)
		}
	}
	sigma := stddev(values)
	if sigma == 0 {
		return nil
	}

	var outliers []model.CandidateObservation
	for _, cl := range clusters {
		if cl.Size() != 1 {
			continue
		}
		if math.Abs(cl.Centroid-largest.Centroid) > sigmaMult*sigma {
			outliers = append(outliers, cl.Members[0])
		}
	}
	return outliers
}

func dropOutlierClusters(clusters []model.Cluster, outliers []model.CandidateObservation) []model.Cluster {
	if len(outliers) == 0 {
		return clusters
	}
	excluded := make(map[string]bool, len(outliers))
	for _, o := range outliers {
		excluded[o.SourceID] = true
	}
	kept := clusters[:0]
	for _, cl := range clusters {
		if cl.Size() == 1 && excluded[cl.Members[0].SourceID] {
			continue
		}
		kept = append(kept, cl)
	}
	return kept
}

func centroidOf(members []model.CandidateObservation) float64 {
	var sum float64
	var n int
	for _, m := range members {
		if v, ok := m.NumericValue(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Median returns the median of the values. Even-length inputs average
// the two middle values.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
