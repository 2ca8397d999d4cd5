package geminiservice

import (
	"strings"
	"testing"

	"VitalScan/internal/health"
	"github.com/stretchr/testify/assert"
)

func scenarioProfile() health.HealthProfile {
	return health.HealthProfile{
		Age:                45,
		Gender:             "Male",
		Weight:             90,
		Height:             175,
		SystolicBP:         150,
		DiastolicBP:        95,
		Cholesterol:        health.CholesterolHigh,
		SmokingStatus:      health.SmokingCurrent,
		AlcoholConsumption: health.AlcoholHeavy,
		PhysicalActivity:   health.ActivitySedentary,
		ExistingConditions: []string{"Diabetes"},
		Symptoms:           []string{"Fatigue"},
	}
}

func TestBuildRiskPrompt(t *testing.T) {
	t.Run("High Risk Profile", func(t *testing.T) {
		prompt := BuildRiskPrompt(scenarioProfile())

		assert.Contains(t, prompt, "150/95")
		assert.Contains(t, prompt, "Cholesterol: high")
		assert.Contains(t, prompt, "Smoking: current")
		assert.Contains(t, prompt, "Diabetes")
		assert.Contains(t, prompt, "Fatigue")
	})

	t.Run("Every Field Rendered", func(t *testing.T) {
		p := health.HealthProfile{
			Age:                61,
			Gender:             "Female",
			Weight:             72.5,
			Height:             163.2,
			SystolicBP:         131,
			DiastolicBP:        84,
			Cholesterol:        health.CholesterolBorderline,
			SmokingStatus:      health.SmokingFormer,
			AlcoholConsumption: health.AlcoholModerate,
			PhysicalActivity:   health.ActivityActive,
			ExistingConditions: []string{"Asthma", "Hypothyroidism"},
			Symptoms:           []string{"Shortness of breath", "Palpitations"},
		}
		prompt := BuildRiskPrompt(p)

		for _, want := range []string{
			"Age: 61",
			"Gender: Female",
			"Weight: 72.5kg",
			"Height: 163.2cm",
			"BP 131/84",
			"Cholesterol: borderline",
			"Smoking: former",
			"Alcohol: moderate",
			"Activity: active",
			"Known Conditions: Asthma, Hypothyroidism.",
			"Reported Symptoms: Shortness of breath, Palpitations.",
		} {
			assert.Contains(t, prompt, want)
		}
	})

	t.Run("Empty Lists Render As None", func(t *testing.T) {
		p := scenarioProfile()
		p.ExistingConditions = nil
		p.Symptoms = []string{}

		prompt := BuildRiskPrompt(p)
		assert.Contains(t, prompt, "Known Conditions: None.")
		assert.Contains(t, prompt, "Reported Symptoms: None.")
	})

	t.Run("Whole Numbers Have No Decimals", func(t *testing.T) {
		prompt := BuildRiskPrompt(scenarioProfile())
		assert.Contains(t, prompt, "Weight: 90kg")
		assert.NotContains(t, prompt, "90.0")
	})

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, BuildRiskPrompt(scenarioProfile()), BuildRiskPrompt(scenarioProfile()))
	})

	t.Run("Asks For Risk Categories", func(t *testing.T) {
		prompt := BuildRiskPrompt(scenarioProfile())
		assert.True(t, strings.HasSuffix(prompt, "Provide specific recommendations."))
		assert.Contains(t, prompt, "Cardiovascular, Metabolic, and Lifestyle-related")
	})
}
