package domain

// CandidateAsset is an asset surfaced by a discovery strategy, pre-scoring.
// Confidence here is the discovery-stage estimate (filter points times the
// strategy weight), not the scorer's final confidence.
type CandidateAsset struct {
	Asset      Asset
	Strategy   string  // name of the discovery strategy that surfaced it
	Confidence float64 // 0..95, weighted by strategy weight
	Reasons    []string
}
