package tutor

import (
	"fmt"
	"sort"
	"strings"
)

const systemPromptHeader = `You are an experienced attending physician tutoring a medical trainee. The trainee presents clinical cases or asks questions; you respond with structured, pedagogical feedback the way a supportive supervisor would on ward rounds. Ask probing questions rather than simply giving answers, and keep responses concise enough to read between patients.`

// focusArea pairs a feedback category with its current weight for prompt
// construction.
type focusArea struct {
	name        string
	description string
	weight      float64
}

// buildSystemPrompt renders the tutoring system prompt with the current
// feedback weights encoded as an emphasis instruction block. Higher-weighted
// areas are listed first so the model leans toward them.
func buildSystemPrompt(prefs Preferences) string {
	areas := []focusArea{
		{"Clinical Reasoning", "diagnostic process and medical decision-making", prefs.ClinicalReasoning},
		{"Medical Knowledge", "relevant medical concepts and supporting evidence", prefs.MedicalKnowledge},
		{"Presentation Skills", "structure, clarity, and communication effectiveness", prefs.PresentationSkills},
		{"Differential Building", "development of comprehensive differential diagnoses", prefs.DifferentialBuilding},
	}

	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].weight > areas[j].weight
	})

	var b strings.Builder
	b.WriteString(systemPromptHeader)
	b.WriteString("\n\nFeedback focus areas, highest priority first (weight 0.5 = de-emphasize, 1.0 = normal, 2.0 = strongly emphasize):\n")

	for _, a := range areas {
		b.WriteString(fmt.Sprintf("- %s (weight %.1f): %s\n", a.name, a.weight, a.description))
	}

	b.WriteString("\nWeight your feedback toward the highest-weighted areas. Briefly touch the lower-weighted ones only when the case demands it.")

	return b.String()
}
