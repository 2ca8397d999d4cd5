/*
Package dashboard turns a validated risk assessment into a render-ready view
and tracks the assessment lifecycle of each browser session.
*/
package dashboard

import (
	"fmt"
	"slices"

	"VitalScan/internal/geminiservice"
)

// Tones map to the colour families the dashboard uses.
const (
	ToneGreen   = "green"
	ToneYellow  = "yellow"
	ToneOrange  = "orange"
	ToneRed     = "red"
	ToneNeutral = "slate"
)

// FullMark is the outer ring of the radar chart.
const FullMark = 100

// Disclaimer is shown under every assessment.
const Disclaimer = "VitalScan AI provides screening assessments based on statistical models and AI patterns. " +
	"This is not a medical diagnosis. Always consult with a certified healthcare professional " +
	"before making significant health decisions or starting new treatments. " +
	"If you are experiencing a medical emergency, call your local emergency services immediately."

// badgeOrder lists levels from most to least severe.
var badgeOrder = []string{
	geminiservice.RiskSevere,
	geminiservice.RiskHigh,
	geminiservice.RiskModerate,
	geminiservice.RiskLow,
}

// presentedPaths are the result fields Present reads. Each one must be
// declared required by the response schema.
var presentedPaths = []string{
	"summary",
	"risks",
	"risks[].category",
	"risks[].riskLevel",
	"risks[].score",
	"risks[].description",
	"risks[].recommendations",
	"lifestyleAnalysis",
	"lifestyleAnalysis.strengths",
	"lifestyleAnalysis.concerns",
	"preventivePlan",
	"preventivePlan.immediate",
	"preventivePlan.longTerm",
	"consultationUrgency",
}

// View is everything the dashboard renders for one resolved assessment.
type View struct {
	Summary     string       `json:"summary"`
	HighestRisk *RiskCard    `json:"highestRisk,omitempty"`
	Urgency     Banner       `json:"urgency"`
	RadarSeries []RadarPoint `json:"radarSeries"`
	RiskCards   []RiskCard   `json:"riskCards"`
	RiskBadges  []BadgeGroup `json:"riskBadges"`
	Strengths   []string     `json:"strengths"`
	Concerns    []string     `json:"concerns"`
	Immediate   []string     `json:"immediate"`
	LongTerm    []string     `json:"longTerm"`
	Disclaimer  string       `json:"disclaimer"`
}

// RadarPoint is one spoke of the risk radar chart.
type RadarPoint struct {
	Subject  string  `json:"subject"`
	Score    float64 `json:"score"`
	FullMark float64 `json:"fullMark"`
}

// RiskCard is one risk category with its tone and numbered advice.
type RiskCard struct {
	Category        string           `json:"category"`
	Level           string           `json:"level"`
	Tone            string           `json:"tone"`
	Score           float64          `json:"score"`
	Description     string           `json:"description"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendation is a single 1-based numbered piece of advice.
type Recommendation struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// BadgeGroup collects the categories that share a risk level.
type BadgeGroup struct {
	Level      string   `json:"level"`
	Tone       string   `json:"tone"`
	Categories []string `json:"categories"`
}

// Banner is the consultation urgency callout.
type Banner struct {
	Level string `json:"level"`
	Tone  string `json:"tone"`
	Label string `json:"label"`
}

// Present builds the dashboard view for r. It is pure: the same result
// always yields the same view, and r is never modified.
func Present(r *geminiservice.PredictionResult) View {
	if r == nil {
		return View{Disclaimer: Disclaimer}
	}

	view := View{
		Summary:     r.Summary,
		Urgency:     urgencyBanner(r.ConsultationUrgency),
		RadarSeries: make([]RadarPoint, 0, len(r.Risks)),
		RiskCards:   make([]RiskCard, 0, len(r.Risks)),
		Strengths:   slices.Clone(r.LifestyleAnalysis.Strengths),
		Concerns:    slices.Clone(r.LifestyleAnalysis.Concerns),
		Immediate:   slices.Clone(r.PreventivePlan.Immediate),
		LongTerm:    slices.Clone(r.PreventivePlan.LongTerm),
		Disclaimer:  Disclaimer,
	}

	for _, risk := range r.Risks {
		view.RadarSeries = append(view.RadarSeries, RadarPoint{
			Subject:  risk.Category,
			Score:    risk.Score,
			FullMark: FullMark,
		})
		view.RiskCards = append(view.RiskCards, riskCard(risk))
	}

	view.RiskBadges = groupBadges(r.Risks)

	if idx := highestRisk(r.Risks); idx >= 0 {
		card := view.RiskCards[idx]
		view.HighestRisk = &card
	}

	return view
}

// LevelTone returns the colour tone of a risk level.
func LevelTone(level string) string {
	switch level {
	case geminiservice.RiskLow:
		return ToneGreen
	case geminiservice.RiskModerate:
		return ToneYellow
	case geminiservice.RiskHigh:
		return ToneOrange
	case geminiservice.RiskSevere:
		return ToneRed
	default:
		return ToneNeutral
	}
}

// UrgencyTone returns the colour tone of a consultation urgency.
func UrgencyTone(urgency string) string {
	switch urgency {
	case geminiservice.UrgencyRoutine:
		return ToneGreen
	case geminiservice.UrgencySoon:
		return ToneOrange
	case geminiservice.UrgencyImmediate:
		return ToneRed
	default:
		return ToneNeutral
	}
}

func urgencyBanner(urgency string) Banner {
	return Banner{
		Level: urgency,
		Tone:  UrgencyTone(urgency),
		Label: fmt.Sprintf("Consultation: %s", urgency),
	}
}

func riskCard(risk geminiservice.HealthRisk) RiskCard {
	recs := make([]Recommendation, 0, len(risk.Recommendations))
	for i, text := range risk.Recommendations {
		recs = append(recs, Recommendation{Number: i + 1, Text: text})
	}
	return RiskCard{
		Category:        risk.Category,
		Level:           risk.RiskLevel,
		Tone:            LevelTone(risk.RiskLevel),
		Score:           risk.Score,
		Description:     risk.Description,
		Recommendations: recs,
	}
}

func groupBadges(risks []geminiservice.HealthRisk) []BadgeGroup {
	groups := make([]BadgeGroup, 0, len(badgeOrder))
	for _, level := range badgeOrder {
		var categories []string
		for _, risk := range risks {
			if risk.RiskLevel == level {
				categories = append(categories, risk.Category)
			}
		}
		if len(categories) == 0 {
			continue
		}
		groups = append(groups, BadgeGroup{Level: level, Tone: LevelTone(level), Categories: categories})
	}
	return groups
}

// highestRisk returns the index of the first risk with the top score, or -1.
func highestRisk(risks []geminiservice.HealthRisk) int {
	best := -1
	for i, risk := range risks {
		if best < 0 || risk.Score > risks[best].Score {
			best = i
		}
	}
	return best
}
