package photo

import (
	"fmt"
	"strings"
)

// Confidence is a totally ordered certainty scale. Larger values are surer.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceProbable
	ConfidenceHigh
	ConfidenceNearCertain
	ConfidenceCertain
)

var confidenceLabels = map[Confidence]string{
	ConfidenceLow:         "Low",
	ConfidenceProbable:    "Probable",
	ConfidenceHigh:        "High",
	ConfidenceNearCertain: "Near-Certain",
	ConfidenceCertain:     "Certain",
}

func (c Confidence) String() string {
	if label, ok := confidenceLabels[c]; ok {
		return label
	}
	return fmt.Sprintf("Confidence(%d)", int(c))
}

// Min returns the less certain of the two values.
func (c Confidence) Min(other Confidence) Confidence {
	if other < c {
		return other
	}
	return c
}

// ParseConfidence accepts the display label, case-insensitively. "NearCertain"
// without the hyphen is accepted as well.
func ParseConfidence(value string) (Confidence, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), "-", "")
	for c, label := range confidenceLabels {
		if strings.EqualFold(strings.ReplaceAll(label, "-", ""), normalized) {
			return c, nil
		}
	}
	return ConfidenceLow, fmt.Errorf("unknown confidence %q", value)
}
