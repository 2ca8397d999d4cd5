package health

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ParseForm builds a HealthProfile from raw form fields. Every numeric field
// must be present and parse, otherwise the submission is rejected with a
// *FieldError wrapped in ErrInvalidProfile. Repeated existingConditions and
// symptoms keys keep their submission order.
func ParseForm(form url.Values) (HealthProfile, error) {
	var (
		p   HealthProfile
		err error
	)

	if p.Age, err = formInt(form, "age"); err != nil {
		return HealthProfile{}, err
	}
	if p.Weight, err = formFloat(form, "weight"); err != nil {
		return HealthProfile{}, err
	}
	if p.Height, err = formFloat(form, "height"); err != nil {
		return HealthProfile{}, err
	}
	if p.SystolicBP, err = formInt(form, "systolicBP"); err != nil {
		return HealthProfile{}, err
	}
	if p.DiastolicBP, err = formInt(form, "diastolicBP"); err != nil {
		return HealthProfile{}, err
	}

	p.Gender = form.Get("gender")
	p.Cholesterol = form.Get("cholesterol")
	p.SmokingStatus = form.Get("smokingStatus")
	p.AlcoholConsumption = form.Get("alcoholConsumption")
	p.PhysicalActivity = form.Get("physicalActivity")
	p.ExistingConditions = form["existingConditions"]
	p.Symptoms = form["symptoms"]

	if err := Normalize(&p); err != nil {
		return HealthProfile{}, err
	}
	return p, nil
}

func formInt(form url.Values, field string) (int, error) {
	return parseInt(field, form.Get(field))
}

func formFloat(form url.Values, field string) (float64, error) {
	return parseFloat(field, form.Get(field))
}

func parseInt(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidNumber(field, raw)
	}
	return v, nil
}

// parseFloat accepts finite decimal numbers only; NaN and Inf are rejected.
func parseFloat(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidNumber(field, raw)
	}
	return v, nil
}

func invalidNumber(field, raw string) error {
	reason := "must be a number"
	if raw == "" {
		reason = "is required"
	}
	return fmt.Errorf("%w: %w", ErrInvalidProfile, &FieldError{Field: field, Value: raw, Reason: reason})
}
