package geminiservice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskAssessmentSchema_RequiredPaths(t *testing.T) {
	want := []string{
		"consultationUrgency",
		"lifestyleAnalysis",
		"lifestyleAnalysis.concerns",
		"lifestyleAnalysis.strengths",
		"preventivePlan",
		"preventivePlan.immediate",
		"preventivePlan.longTerm",
		"risks",
		"risks[].category",
		"risks[].description",
		"risks[].recommendations",
		"risks[].riskLevel",
		"risks[].score",
		"summary",
	}
	assert.Equal(t, want, RiskAssessmentSchema.RequiredPaths())
}

func TestRiskAssessmentSchema_Shape(t *testing.T) {
	s := RiskAssessmentSchema

	t.Run("Every Property Is Required", func(t *testing.T) {
		var walk func(*GeminiSchema)
		walk = func(node *GeminiSchema) {
			if node.Type == TypeObject {
				assert.ElementsMatch(t, keys(node.Properties), node.Required)
				assert.ElementsMatch(t, node.Required, node.PropertyOrdering)
			}
			for _, child := range node.Properties {
				walk(child)
			}
			if node.Items != nil {
				walk(node.Items)
			}
		}
		walk(s)
	})

	t.Run("Enumerations", func(t *testing.T) {
		level := s.Properties["risks"].Items.Properties["riskLevel"]
		assert.Equal(t, []string{"Low", "Moderate", "High", "Severe"}, level.Enum)

		urgency := s.Properties["consultationUrgency"]
		assert.Equal(t, []string{"routine", "soon", "immediate"}, urgency.Enum)
	})

	t.Run("Score Bounds", func(t *testing.T) {
		score := s.Properties["risks"].Items.Properties["score"]
		require.NotNil(t, score.Minimum)
		require.NotNil(t, score.Maximum)
		assert.Equal(t, 0.0, *score.Minimum)
		assert.Equal(t, 100.0, *score.Maximum)
	})

	t.Run("Wire Format", func(t *testing.T) {
		raw, err := json.Marshal(s)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "OBJECT", decoded["type"])
		assert.Contains(t, decoded, "required")
		assert.NotContains(t, decoded, "items")
	})
}

func keys(m map[string]*GeminiSchema) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
