package domain

// Labels produced by the decision policy.
const (
	// LabelBenign is the negative class, also the fail-open default.
	LabelBenign = 0
	// LabelMalicious is the positive class.
	LabelMalicious = 1
)

// ScoreResult is the outcome of scoring one binary.
type ScoreResult struct {
	// Probability is the classifier's malware probability in [0,1].
	Probability float64 `json:"prob_malware"`
	// Label is 1 when Probability >= Threshold, else 0.
	Label int `json:"label"`
	// Threshold is the decision boundary applied, inclusive toward malicious.
	Threshold float64 `json:"threshold"`
	// FeatureCount is the width of the scored feature vector.
	FeatureCount int `json:"num_features"`
}

// Verdict is the wire-level classification response: the label and nothing
// else, so internal failures and model details never leak to the caller.
type Verdict struct {
	Result int `json:"result"`
}

// Decide thresholds a probability into a label. The boundary is inclusive:
// probability equal to the threshold is malicious.
func Decide(probability, threshold float64) int {
	if probability >= threshold {
		return LabelMalicious
	}
	return LabelBenign
}
