package engine

import "fmt"

// CorrelationID uniquely identifies a virtual user (copy) within its
// scenario for the lifetime of that copy.
type CorrelationID struct {
	ID           string
	ScenarioName string
	CopyNumber   int
}

// NewCorrelationID builds the canonical "{scenario}_{copy}" id.
func NewCorrelationID(scenario string, copyNumber int) CorrelationID {
	return CorrelationID{
		ID:           fmt.Sprintf("%s_%d", scenario, copyNumber),
		ScenarioName: scenario,
		CopyNumber:   copyNumber,
	}
}
