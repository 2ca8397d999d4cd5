package health

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// profileInput mirrors HealthProfile with the numeric fields left raw so
// they can be required and coerced the same way form values are.
type profileInput struct {
	Age         json.RawMessage `json:"age"`
	Weight      json.RawMessage `json:"weight"`
	Height      json.RawMessage `json:"height"`
	SystolicBP  json.RawMessage `json:"systolicBP"`
	DiastolicBP json.RawMessage `json:"diastolicBP"`

	Gender             string   `json:"gender"`
	Cholesterol        string   `json:"cholesterol"`
	SmokingStatus      string   `json:"smokingStatus"`
	AlcoholConsumption string   `json:"alcoholConsumption"`
	PhysicalActivity   string   `json:"physicalActivity"`
	ExistingConditions []string `json:"existingConditions"`
	Symptoms           []string `json:"symptoms"`
}

// DecodeJSON reads a HealthProfile from a JSON body. Numeric fields may be
// JSON numbers or numeric strings; a missing, null or unparsable number
// rejects the submission exactly like ParseForm does.
func DecodeJSON(r io.Reader) (HealthProfile, error) {
	var in profileInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return HealthProfile{}, fmt.Errorf("%w: invalid request body: %w", ErrInvalidProfile, err)
	}

	var (
		p   HealthProfile
		err error
	)
	if p.Age, err = parseInt("age", numberText(in.Age)); err != nil {
		return HealthProfile{}, err
	}
	if p.Weight, err = parseFloat("weight", numberText(in.Weight)); err != nil {
		return HealthProfile{}, err
	}
	if p.Height, err = parseFloat("height", numberText(in.Height)); err != nil {
		return HealthProfile{}, err
	}
	if p.SystolicBP, err = parseInt("systolicBP", numberText(in.SystolicBP)); err != nil {
		return HealthProfile{}, err
	}
	if p.DiastolicBP, err = parseInt("diastolicBP", numberText(in.DiastolicBP)); err != nil {
		return HealthProfile{}, err
	}

	p.Gender = in.Gender
	p.Cholesterol = in.Cholesterol
	p.SmokingStatus = in.SmokingStatus
	p.AlcoholConsumption = in.AlcoholConsumption
	p.PhysicalActivity = in.PhysicalActivity
	p.ExistingConditions = in.ExistingConditions
	p.Symptoms = in.Symptoms

	if err := Normalize(&p); err != nil {
		return HealthProfile{}, err
	}
	return p, nil
}

// numberText returns the text of a raw JSON number or string. Missing and
// null values come back empty; other JSON kinds come back verbatim and fail
// to parse as numbers.
func numberText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	}
	return string(raw)
}
