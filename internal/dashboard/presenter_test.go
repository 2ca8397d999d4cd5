package dashboard

import (
	"testing"

	"VitalScan/internal/geminiservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *geminiservice.PredictionResult {
	return &geminiservice.PredictionResult{
		Summary: "Elevated cardiovascular risk.",
		Risks: []geminiservice.HealthRisk{
			{
				Category:        "Cardiovascular",
				RiskLevel:       geminiservice.RiskHigh,
				Score:           78,
				Description:     "Hypertension with smoking.",
				Recommendations: []string{"Quit smoking", "Track blood pressure"},
			},
			{
				Category:        "Metabolic",
				RiskLevel:       geminiservice.RiskModerate,
				Score:           55,
				Description:     "Diabetes with low activity.",
				Recommendations: []string{"Walk daily"},
			},
		},
		LifestyleAnalysis: geminiservice.LifestyleAnalysis{
			Strengths: []string{"Regular check-ups"},
			Concerns:  []string{"Smoking"},
		},
		PreventivePlan: geminiservice.PreventivePlan{
			Immediate: []string{"See a GP"},
			LongTerm:  []string{"Lose weight"},
		},
		ConsultationUrgency: geminiservice.UrgencySoon,
	}
}

func TestPresent(t *testing.T) {
	t.Run("Radar Series Follows Risk Order", func(t *testing.T) {
		view := Present(sampleResult())

		assert.Equal(t, []RadarPoint{
			{Subject: "Cardiovascular", Score: 78, FullMark: 100},
			{Subject: "Metabolic", Score: 55, FullMark: 100},
		}, view.RadarSeries)
	})

	t.Run("Risk Cards", func(t *testing.T) {
		view := Present(sampleResult())

		require.Len(t, view.RiskCards, 2)
		card := view.RiskCards[0]
		assert.Equal(t, "Cardiovascular", card.Category)
		assert.Equal(t, geminiservice.RiskHigh, card.Level)
		assert.Equal(t, ToneOrange, card.Tone)
		assert.Equal(t, []Recommendation{
			{Number: 1, Text: "Quit smoking"},
			{Number: 2, Text: "Track blood pressure"},
		}, card.Recommendations)
		assert.Equal(t, ToneYellow, view.RiskCards[1].Tone)
	})

	t.Run("Urgency Banner", func(t *testing.T) {
		view := Present(sampleResult())
		assert.Equal(t, Banner{Level: "soon", Tone: ToneOrange, Label: "Consultation: soon"}, view.Urgency)
	})

	t.Run("Lists Copied Verbatim", func(t *testing.T) {
		r := sampleResult()
		view := Present(r)

		assert.Equal(t, r.Summary, view.Summary)
		assert.Equal(t, r.LifestyleAnalysis.Strengths, view.Strengths)
		assert.Equal(t, r.LifestyleAnalysis.Concerns, view.Concerns)
		assert.Equal(t, r.PreventivePlan.Immediate, view.Immediate)
		assert.Equal(t, r.PreventivePlan.LongTerm, view.LongTerm)
		assert.Equal(t, Disclaimer, view.Disclaimer)
	})

	t.Run("Highest Risk Prefers First On Tie", func(t *testing.T) {
		r := sampleResult()
		r.Risks[1].Score = 78
		view := Present(r)

		require.NotNil(t, view.HighestRisk)
		assert.Equal(t, "Cardiovascular", view.HighestRisk.Category)
	})

	t.Run("No Risks", func(t *testing.T) {
		r := sampleResult()
		r.Risks = []geminiservice.HealthRisk{}
		view := Present(r)

		assert.Empty(t, view.RadarSeries)
		assert.Empty(t, view.RiskCards)
		assert.Empty(t, view.RiskBadges)
		assert.Nil(t, view.HighestRisk)
	})

	t.Run("Deterministic And Pure", func(t *testing.T) {
		r := sampleResult()
		before := sampleResult()

		first := Present(r)
		second := Present(r)

		assert.Equal(t, first, second)
		assert.Equal(t, before, r)
	})
}

func TestRiskBadges(t *testing.T) {
	r := sampleResult()
	r.Risks = append(r.Risks,
		geminiservice.HealthRisk{Category: "Lifestyle", RiskLevel: geminiservice.RiskLow, Score: 20},
		geminiservice.HealthRisk{Category: "Respiratory", RiskLevel: geminiservice.RiskHigh, Score: 70},
	)

	view := Present(r)

	assert.Equal(t, []BadgeGroup{
		{Level: "High", Tone: ToneOrange, Categories: []string{"Cardiovascular", "Respiratory"}},
		{Level: "Moderate", Tone: ToneYellow, Categories: []string{"Metabolic"}},
		{Level: "Low", Tone: ToneGreen, Categories: []string{"Lifestyle"}},
	}, view.RiskBadges)
}

func TestTones(t *testing.T) {
	levels := map[string]string{
		"Low":      ToneGreen,
		"Moderate": ToneYellow,
		"High":     ToneOrange,
		"Severe":   ToneRed,
		"Unknown":  ToneNeutral,
	}
	for level, want := range levels {
		assert.Equal(t, want, LevelTone(level), level)
	}

	urgencies := map[string]string{
		"routine":   ToneGreen,
		"soon":      ToneOrange,
		"immediate": ToneRed,
		"":          ToneNeutral,
	}
	for urgency, want := range urgencies {
		assert.Equal(t, want, UrgencyTone(urgency), urgency)
	}
}

// Every field the presenter reads must be one the model is forced to send.
func TestPresentedPathsAreRequired(t *testing.T) {
	required := geminiservice.RiskAssessmentSchema.RequiredPaths()
	for _, path := range presentedPaths {
		assert.Contains(t, required, path)
	}
}
