/*
Package health defines the self-reported health profile submitted for a risk
assessment, together with the validation and normalization applied to it
before it is sent to the model.
*/
package health

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Allowed values for the enumerated profile fields.
const (
	CholesterolNormal     = "normal"
	CholesterolBorderline = "borderline"
	CholesterolHigh       = "high"

	SmokingNever   = "never"
	SmokingFormer  = "former"
	SmokingCurrent = "current"

	AlcoholNone     = "none"
	AlcoholModerate = "moderate"
	AlcoholHeavy    = "heavy"

	ActivitySedentary = "sedentary"
	ActivityModerate  = "moderate"
	ActivityActive    = "active"
)

// HealthProfile is the set of vitals and lifestyle answers entered by a user.
// It is treated as immutable once submitted.
type HealthProfile struct {
	Age         int     `json:"age"`
	Gender      string  `json:"gender"`
	Weight      float64 `json:"weight"` // kg
	Height      float64 `json:"height"` // cm
	SystolicBP  int     `json:"systolicBP"`
	DiastolicBP int     `json:"diastolicBP"`

	Cholesterol        string `json:"cholesterol" validate:"required,oneof=normal borderline high"`
	SmokingStatus      string `json:"smokingStatus" validate:"required,oneof=never former current"`
	AlcoholConsumption string `json:"alcoholConsumption" validate:"required,oneof=none moderate heavy"`
	PhysicalActivity   string `json:"physicalActivity" validate:"required,oneof=sedentary moderate active"`

	ExistingConditions []string `json:"existingConditions"`
	Symptoms           []string `json:"symptoms"`
}

// ErrInvalidProfile marks every validation failure of a submitted profile.
var ErrInvalidProfile = errors.New("invalid health profile")

// FieldError describes why a single profile field was rejected.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Reason, e.Value)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so errors match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DefaultProfile returns the values the intake form starts from.
func DefaultProfile() HealthProfile {
	return HealthProfile{
		Age:                30,
		Gender:             "Other",
		Weight:             70,
		Height:             175,
		SystolicBP:         120,
		DiastolicBP:        80,
		Cholesterol:        CholesterolNormal,
		SmokingStatus:      SmokingNever,
		AlcoholConsumption: AlcoholNone,
		PhysicalActivity:   ActivityModerate,
		ExistingConditions: []string{},
		Symptoms:           []string{},
	}
}

// Normalize trims free text, lower-cases the enumerated fields, drops blank
// list entries and validates the result. Numeric plausibility is not checked.
func Normalize(p *HealthProfile) error {
	p.Gender = strings.TrimSpace(p.Gender)
	p.Cholesterol = strings.ToLower(strings.TrimSpace(p.Cholesterol))
	p.SmokingStatus = strings.ToLower(strings.TrimSpace(p.SmokingStatus))
	p.AlcoholConsumption = strings.ToLower(strings.TrimSpace(p.AlcoholConsumption))
	p.PhysicalActivity = strings.ToLower(strings.TrimSpace(p.PhysicalActivity))
	p.ExistingConditions = cleanList(p.ExistingConditions)
	p.Symptoms = cleanList(p.Symptoms)

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			reason := "is required"
			if fe.Tag() == "oneof" {
				reason = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
			}
			return fmt.Errorf("%w: %w", ErrInvalidProfile, &FieldError{
				Field:  fe.Field(),
				Value:  fmt.Sprint(fe.Value()),
				Reason: reason,
			})
		}
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}

// PlausibilityWarnings lists values that are well-formed but medically
// implausible. They are reported for diagnostics only and never reject a profile.
func PlausibilityWarnings(p HealthProfile) []string {
	var warnings []string
	if p.Age < 0 || p.Age > 130 {
		warnings = append(warnings, fmt.Sprintf("age %d outside 0-130", p.Age))
	}
	if p.Weight <= 0 {
		warnings = append(warnings, fmt.Sprintf("weight %v is not positive", p.Weight))
	}
	if p.Height <= 0 {
		warnings = append(warnings, fmt.Sprintf("height %v is not positive", p.Height))
	}
	if p.SystolicBP <= 0 || p.DiastolicBP <= 0 {
		warnings = append(warnings, fmt.Sprintf("blood pressure %d/%d is not positive", p.SystolicBP, p.DiastolicBP))
	} else if p.SystolicBP <= p.DiastolicBP {
		warnings = append(warnings, fmt.Sprintf("systolic %d not above diastolic %d", p.SystolicBP, p.DiastolicBP))
	}
	return warnings
}

// AddCondition returns a copy of p with the trimmed condition appended.
// Blank input leaves the list unchanged.
func (p HealthProfile) AddCondition(condition string) HealthProfile {
	p.ExistingConditions = appendTrimmed(p.ExistingConditions, condition)
	return p
}

// RemoveCondition returns a copy of p without the condition at index i.
func (p HealthProfile) RemoveCondition(i int) HealthProfile {
	p.ExistingConditions = removeAt(p.ExistingConditions, i)
	return p
}

// AddSymptom returns a copy of p with the trimmed symptom appended.
func (p HealthProfile) AddSymptom(symptom string) HealthProfile {
	p.Symptoms = appendTrimmed(p.Symptoms, symptom)
	return p
}

// RemoveSymptom returns a copy of p without the symptom at index i.
func (p HealthProfile) RemoveSymptom(i int) HealthProfile {
	p.Symptoms = removeAt(p.Symptoms, i)
	return p
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = appendTrimmed(out, item)
	}
	return out
}

// appendTrimmed never aliases the input slice, so profiles stay independent.
func appendTrimmed(items []string, value string) []string {
	out := make([]string, len(items), len(items)+1)
	copy(out, items)
	if v := strings.TrimSpace(value); v != "" {
		out = append(out, v)
	}
	return out
}

func removeAt(items []string, i int) []string {
	out := make([]string, 0, len(items))
	for j, item := range items {
		if j != i {
			out = append(out, item)
		}
	}
	return out
}
