package geminiservice

import "sort"

/* =================================================================================
							GEMINI SCHEMA DEFINITION
	This is the core structure that tells Gemini how to format its JSON response
=================================================================================*/

// Schema type names understood by Gemini controlled generation.
const (
	TypeObject  = "OBJECT"
	TypeArray   = "ARRAY"
	TypeString  = "STRING"
	TypeNumber  = "NUMBER"
	TypeInteger = "INTEGER"
	TypeBoolean = "BOOLEAN"
)

// GeminiSchema defines the structure for "Controlled Generation" (Structured Output).
// The same value is sent to the model and used to validate what comes back.
type GeminiSchema struct {
	// Type defines the data type (e.g., "OBJECT", "ARRAY", "STRING", "NUMBER").
	Type string `json:"type"`

	// Format specifies data format, primarily used for "enum" validation.
	Format string `json:"format,omitempty"`

	// Description explains the field's purpose to the AI, helping it generate better content.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "OBJECT").
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// PropertyOrdering fixes the order in which the model emits object fields.
	PropertyOrdering []string `json:"propertyOrdering,omitempty"`

	// Items defines the schema for elements within an array (used when Type is "ARRAY").
	Items *GeminiSchema `json:"items,omitempty"`

	// Required lists the field names that the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// Enum lists valid specific string values for fields with restricted options.
	Enum []string `json:"enum,omitempty"`

	// Minimum and Maximum bound NUMBER and INTEGER values.
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
}

// RequiredPaths returns the dotted path of every required field reachable
// through required parents, sorted. Array elements are written as "name[]".
func (s *GeminiSchema) RequiredPaths() []string {
	var paths []string
	s.collectRequired("", &paths)
	sort.Strings(paths)
	return paths
}

func (s *GeminiSchema) collectRequired(prefix string, paths *[]string) {
	if s == nil {
		return
	}
	for _, name := range s.Required {
		path := prefix + name
		*paths = append(*paths, path)

		child := s.Properties[name]
		if child == nil {
			continue
		}
		switch child.Type {
		case TypeObject:
			child.collectRequired(path+".", paths)
		case TypeArray:
			if child.Items != nil && child.Items.Type == TypeObject {
				child.Items.collectRequired(path+"[].", paths)
			}
		}
	}
}

func stringList(description string) *GeminiSchema {
	return &GeminiSchema{
		Type:        TypeArray,
		Description: description,
		Items:       &GeminiSchema{Type: TypeString},
	}
}

func float64Ptr(v float64) *float64 { return &v }

/* =================================================================================
						PROMPT ENGINEERING & GUARDRAILS
=================================================================================*/

// RiskSystemPrompt defines the persona and output rules for the model.
const RiskSystemPrompt = `You are a world-class AI medical consultant. Analyze user vitals and lifestyle data to predict potential health risks. Focus on preventive measures. Always output data in a structured JSON format matching the schema provided. Be medically accurate but clear that this is an AI screening, not a diagnosis.`

/*
RiskPromptTemplate is the formatted string used to build the final message.
Placeholders, in order: age, gender, weight, height, systolic, diastolic,
cholesterol, smoking, alcohol, activity, conditions, symptoms.
*/
const RiskPromptTemplate = `Analyze the following health data for risk assessment:
Age: %d, Gender: %s, Weight: %skg, Height: %scm.
Vitals: BP %d/%d, Cholesterol: %s.
Lifestyle: Smoking: %s, Alcohol: %s, Activity: %s.
Known Conditions: %s.
Reported Symptoms: %s.

Assess risks for Cardiovascular, Metabolic, and Lifestyle-related diseases. Provide specific recommendations.`

/*
RiskAssessmentSchema describes the exact JSON structure the AI MUST output.
Every field is required; a response missing any of them is rejected.
*/
var RiskAssessmentSchema = &GeminiSchema{
	Type: TypeObject,
	Properties: map[string]*GeminiSchema{
		"summary": {
			Type:        TypeString,
			Description: "Short overall summary of the user's health risk profile.",
		},
		"risks": {
			Type:        TypeArray,
			Description: "One entry per assessed risk category, e.g. Cardiovascular, Metabolic, Lifestyle.",
			Items: &GeminiSchema{
				Type: TypeObject,
				Properties: map[string]*GeminiSchema{
					"category": {Type: TypeString},
					"riskLevel": {
						Type:   TypeString,
						Format: "enum",
						Enum:   []string{RiskLow, RiskModerate, RiskHigh, RiskSevere},
					},
					"score": {
						Type:        TypeNumber,
						Description: "Risk score from 0 (no risk) to 100 (maximum risk).",
						Minimum:     float64Ptr(0),
						Maximum:     float64Ptr(100),
					},
					"description":     {Type: TypeString},
					"recommendations": stringList("Specific, actionable recommendations for this risk."),
				},
				PropertyOrdering: []string{"category", "riskLevel", "score", "description", "recommendations"},
				Required:         []string{"category", "riskLevel", "score", "description", "recommendations"},
			},
		},
		"lifestyleAnalysis": {
			Type: TypeObject,
			Properties: map[string]*GeminiSchema{
				"strengths": stringList("Healthy habits worth keeping."),
				"concerns":  stringList("Habits that raise the user's risk."),
			},
			PropertyOrdering: []string{"strengths", "concerns"},
			Required:         []string{"strengths", "concerns"},
		},
		"preventivePlan": {
			Type: TypeObject,
			Properties: map[string]*GeminiSchema{
				"immediate": stringList("Actions to take now."),
				"longTerm":  stringList("Long-term prevention goals."),
			},
			PropertyOrdering: []string{"immediate", "longTerm"},
			Required:         []string{"immediate", "longTerm"},
		},
		"consultationUrgency": {
			Type:        TypeString,
			Format:      "enum",
			Description: "How soon the user should see a healthcare professional.",
			Enum:        []string{UrgencyRoutine, UrgencySoon, UrgencyImmediate},
		},
	},
	PropertyOrdering: []string{"summary", "risks", "lifestyleAnalysis", "preventivePlan", "consultationUrgency"},
	Required:         []string{"summary", "risks", "lifestyleAnalysis", "preventivePlan", "consultationUrgency"},
}
