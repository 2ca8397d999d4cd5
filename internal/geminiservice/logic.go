package geminiservice

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"VitalScan/internal/health"
	"github.com/rs/zerolog"
)

// Predict is the main orchestrator.
// It builds the prompt, calls Gemini with the risk schema and validates the result.
func (c *Client) Predict(ctx context.Context, profile health.HealthProfile) (*PredictionResult, error) {
	logger := c.loggerFrom(ctx)

	if warnings := health.PlausibilityWarnings(profile); len(warnings) > 0 {
		logger.Warn().Strs("warnings", warnings).Msg("Submitting profile with implausible vitals")
	}

	prompt := BuildRiskPrompt(profile)

	logger.Info().Str("model", c.model).Msg("Sending risk prompt to Gemini...")
	text, err := c.GenerateStructured(ctx, RiskSystemPrompt, prompt, RiskAssessmentSchema)
	if err != nil {
		return nil, err
	}

	result, err := ParsePrediction(text)
	if err != nil {
		logger.Error().Err(err).Int("response_bytes", len(text)).Msg("Gemini response rejected")
		return nil, err
	}

	logger.Info().Int("risks", len(result.Risks)).Str("urgency", result.ConsultationUrgency).
		Msg("Successfully generated and validated risk assessment")
	return result, nil
}

// BuildRiskPrompt renders a profile into the user prompt. Every field appears
// in human-readable form and the output depends only on the profile.
func BuildRiskPrompt(p health.HealthProfile) string {
	return fmt.Sprintf(
		RiskPromptTemplate,
		p.Age,
		p.Gender,
		formatNumber(p.Weight),
		formatNumber(p.Height),
		p.SystolicBP,
		p.DiastolicBP,
		p.Cholesterol,
		p.SmokingStatus,
		p.AlcoholConsumption,
		p.PhysicalActivity,
		formatList(p.ExistingConditions),
		formatList(p.Symptoms),
	)
}

// formatNumber prints the shortest exact form, so 90 stays "90" and 72.5 stays "72.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func (c *Client) loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return c.log
}
