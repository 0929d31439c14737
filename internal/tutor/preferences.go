// Package tutor is the clinical tutoring interaction core: it turns one
// inbound case presentation plus the current feedback preferences into one
// outbound LLM exchange.
package tutor

// Preference weight bounds. The UI sliders enforce the same range; the
// store clamps anyway so out-of-band callers can't persist bad values.
const (
	MinWeight     = 0.5
	MaxWeight     = 2.0
	DefaultWeight = 1.0
)

// Preferences is the fixed-shape set of feedback weights. All four fields
// are always present; there is no open-ended key space.
type Preferences struct {
	ClinicalReasoning    float64 `json:"clinical_reasoning"`
	MedicalKnowledge     float64 `json:"medical_knowledge"`
	PresentationSkills   float64 `json:"presentation_skills"`
	DifferentialBuilding float64 `json:"differential_building"`
}

// DefaultPreferences returns the neutral weighting.
func DefaultPreferences() Preferences {
	return Preferences{
		ClinicalReasoning:    DefaultWeight,
		MedicalKnowledge:     DefaultWeight,
		PresentationSkills:   DefaultWeight,
		DifferentialBuilding: DefaultWeight,
	}
}

// Clamp returns a copy with every weight forced into [MinWeight, MaxWeight].
func (p Preferences) Clamp() Preferences {
	return Preferences{
		ClinicalReasoning:    clampWeight(p.ClinicalReasoning),
		MedicalKnowledge:     clampWeight(p.MedicalKnowledge),
		PresentationSkills:   clampWeight(p.PresentationSkills),
		DifferentialBuilding: clampWeight(p.DifferentialBuilding),
	}
}

func clampWeight(w float64) float64 {
	if w < MinWeight {
		return MinWeight
	}
	if w > MaxWeight {
		return MaxWeight
	}
	return w
}
