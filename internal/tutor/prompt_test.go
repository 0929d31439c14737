package tutor

import (
	"strings"
	"testing"
)

func TestBuildSystemPrompt_ContainsAllAreas(t *testing.T) {
	prompt := buildSystemPrompt(DefaultPreferences())

	for _, area := range []string{
		"Clinical Reasoning",
		"Medical Knowledge",
		"Presentation Skills",
		"Differential Building",
	} {
		if !strings.Contains(prompt, area) {
			t.Errorf("prompt missing focus area %q", area)
		}
	}
}

func TestBuildSystemPrompt_HighestWeightFirst(t *testing.T) {
	prefs := Preferences{
		ClinicalReasoning:    0.5,
		MedicalKnowledge:     1.0,
		PresentationSkills:   1.0,
		DifferentialBuilding: 2.0,
	}
	prompt := buildSystemPrompt(prefs)

	diffIdx := strings.Index(prompt, "Differential Building")
	reasonIdx := strings.Index(prompt, "Clinical Reasoning")
	if diffIdx == -1 || reasonIdx == -1 {
		t.Fatal("focus areas missing from prompt")
	}
	if diffIdx > reasonIdx {
		t.Error("highest-weighted area should be listed before the lowest")
	}
}

func TestBuildSystemPrompt_EncodesWeights(t *testing.T) {
	prefs := Preferences{
		ClinicalReasoning:    1.7,
		MedicalKnowledge:     0.5,
		PresentationSkills:   1.0,
		DifferentialBuilding: 1.0,
	}
	prompt := buildSystemPrompt(prefs)

	if !strings.Contains(prompt, "weight 1.7") {
		t.Error("prompt does not encode the 1.7 weight")
	}
	if !strings.Contains(prompt, "weight 0.5") {
		t.Error("prompt does not encode the 0.5 weight")
	}
}

func TestBuildSystemPrompt_StableForEqualWeights(t *testing.T) {
	// Equal weights keep declaration order (stable sort).
	prompt := buildSystemPrompt(DefaultPreferences())
	cr := strings.Index(prompt, "Clinical Reasoning")
	db := strings.Index(prompt, "Differential Building")
	if cr > db {
		t.Error("equal weights should keep declaration order")
	}
}
