package assessment

import (
	"encoding/json"

	"github.com/propshield/climarisk/internal/domain/risk"
)

// Assessments cross the cache boundary as JSON.  Kept behind these two
// helpers so the wire encoding can change without touching the service.

func marshalAssessment(a *risk.RiskAssessment) ([]byte, error) {
	return json.Marshal(a)
}

func unmarshalAssessment(data []byte, a *risk.RiskAssessment) error {
	return json.Unmarshal(data, a)
}
