package geminiservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// Risk levels and consultation urgencies accepted from the model.
const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
	RiskSevere   = "Severe"

	UrgencyRoutine   = "routine"
	UrgencySoon      = "soon"
	UrgencyImmediate = "immediate"
)

// PredictionResult is the risk assessment returned by the model.
type PredictionResult struct {
	Summary             string            `json:"summary"`
	Risks               []HealthRisk      `json:"risks"`
	LifestyleAnalysis   LifestyleAnalysis `json:"lifestyleAnalysis"`
	PreventivePlan      PreventivePlan    `json:"preventivePlan"`
	ConsultationUrgency string            `json:"consultationUrgency"`
}

// HealthRisk is one assessed risk category.
type HealthRisk struct {
	Category        string   `json:"category"`
	RiskLevel       string   `json:"riskLevel"`
	Score           float64  `json:"score"` // 0 to 100
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

type LifestyleAnalysis struct {
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

type PreventivePlan struct {
	Immediate []string `json:"immediate"`
	LongTerm  []string `json:"longTerm"`
}

// SchemaError pinpoints where a response broke the contract.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrSchemaViolation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrSchemaViolation, e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchemaViolation }

// ParsePrediction turns the model's text into a validated PredictionResult.
// A result is accepted whole or not at all.
func ParsePrediction(text string) (*PredictionResult, error) {
	body := stripCodeFence(text)
	if body == "" {
		return nil, ErrEmptyResponse
	}

	doc, err := decodeDocument([]byte(body))
	if err != nil {
		return nil, err
	}
	if err := checkValue(doc, RiskAssessmentSchema, ""); err != nil {
		return nil, err
	}

	// Only declared, checked keys reach the struct. encoding/json matches
	// keys case-insensitively, so "Risks" would otherwise override "risks".
	checked, err := json.Marshal(prune(doc, RiskAssessmentSchema))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}
	var result PredictionResult
	if err := json.Unmarshal(checked, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}
	return &result, nil
}

// ValidatePrediction checks an already-decoded result against the same
// contract ParsePrediction enforces. It never modifies r.
func ValidatePrediction(r *PredictionResult) error {
	if r == nil {
		return &SchemaError{Reason: "result is nil"}
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		return err
	}
	return checkValue(doc, RiskAssessmentSchema, "")
}

func decodeDocument(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrSchemaViolation, err)
	}
	if dec.More() {
		return nil, &SchemaError{Reason: "trailing data after JSON document"}
	}
	return doc, nil
}

// checkValue walks a decoded JSON value alongside its schema. Missing or null
// required fields, wrong types, unknown enum values and out-of-range numbers
// are all violations. Fields the schema does not declare are ignored.
func checkValue(v any, s *GeminiSchema, path string) error {
	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return typeMismatch(path, "object", v)
		}
		for _, name := range s.Required {
			if val, present := obj[name]; !present || val == nil {
				return &SchemaError{Path: join(path, name), Reason: "required field missing"}
			}
		}
		for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
			child := s.Properties[name]
			val, present := obj[name]
			if !present || val == nil {
				continue
			}
			if err := checkValue(val, child, join(path, name)); err != nil {
				return err
			}
		}
		return nil

	case TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return typeMismatch(path, "array", v)
		}
		if s.Items == nil {
			return nil
		}
		for i, item := range arr {
			if err := checkValue(item, s.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case TypeString:
		str, ok := v.(string)
		if !ok {
			return typeMismatch(path, "string", v)
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%q is not one of %s", str, strings.Join(s.Enum, ", "))}
		}
		return nil

	case TypeNumber, TypeInteger:
		num, ok := v.(json.Number)
		if !ok {
			return typeMismatch(path, "number", v)
		}
		f, err := num.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%s is not a finite number", num)}
		}
		if s.Type == TypeInteger && f != math.Trunc(f) {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%s is not an integer", num)}
		}
		if s.Minimum != nil && f < *s.Minimum {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%s is below %v", num, *s.Minimum)}
		}
		if s.Maximum != nil && f > *s.Maximum {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%s is above %v", num, *s.Maximum)}
		}
		return nil

	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return typeMismatch(path, "boolean", v)
		}
		return nil
	}

	return &SchemaError{Path: path, Reason: fmt.Sprintf("unsupported schema type %q", s.Type)}
}

// prune keeps only the properties the schema declares, so nothing that
// escaped checkValue reaches the typed result.
func prune(v any, s *GeminiSchema) any {
	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return v
		}
		out := make(map[string]any, len(s.Properties))
		for name, child := range s.Properties {
			if val, present := obj[name]; present {
				out[name] = prune(val, child)
			}
		}
		return out
	case TypeArray:
		arr, ok := v.([]any)
		if !ok || s.Items == nil {
			return v
		}
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = prune(item, s.Items)
		}
		return out
	}
	return v
}

func typeMismatch(path, want string, got any) error {
	return &SchemaError{Path: path, Reason: fmt.Sprintf("expected %s, got %s", want, jsonKind(got))}
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// stripCodeFence removes a markdown fence the model sometimes wraps JSON in.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
