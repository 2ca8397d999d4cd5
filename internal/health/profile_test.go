package health

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() url.Values {
	return url.Values{
		"age":                {"45"},
		"gender":             {"Male"},
		"weight":             {"90"},
		"height":             {"175.5"},
		"systolicBP":         {"150"},
		"diastolicBP":        {"95"},
		"cholesterol":        {"high"},
		"smokingStatus":      {"current"},
		"alcoholConsumption": {"heavy"},
		"physicalActivity":   {"sedentary"},
		"existingConditions": {"Diabetes", "  Asthma "},
		"symptoms":           {"Fatigue"},
	}
}

func TestParseForm(t *testing.T) {
	t.Run("Valid Form", func(t *testing.T) {
		p, err := ParseForm(validForm())
		require.NoError(t, err)

		assert.Equal(t, 45, p.Age)
		assert.Equal(t, "Male", p.Gender)
		assert.Equal(t, 90.0, p.Weight)
		assert.Equal(t, 175.5, p.Height)
		assert.Equal(t, 150, p.SystolicBP)
		assert.Equal(t, 95, p.DiastolicBP)
		assert.Equal(t, CholesterolHigh, p.Cholesterol)
		assert.Equal(t, []string{"Diabetes", "Asthma"}, p.ExistingConditions)
		assert.Equal(t, []string{"Fatigue"}, p.Symptoms)
	})

	t.Run("Non Numeric Age", func(t *testing.T) {
		form := validForm()
		form.Set("age", "forty")

		_, err := ParseForm(form)
		require.ErrorIs(t, err, ErrInvalidProfile)

		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "age", fe.Field)
		assert.Equal(t, "forty", fe.Value)
	})

	t.Run("Missing Numeric Field", func(t *testing.T) {
		form := validForm()
		form.Del("diastolicBP")

		_, err := ParseForm(form)
		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "diastolicBP", fe.Field)
		assert.Equal(t, "is required", fe.Reason)
	})

	t.Run("Fractional Blood Pressure", func(t *testing.T) {
		form := validForm()
		form.Set("systolicBP", "120.5")

		_, err := ParseForm(form)
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("Non Finite Numbers", func(t *testing.T) {
		for _, tc := range []struct{ field, value string }{
			{"weight", "NaN"},
			{"height", "Inf"},
			{"weight", "-Infinity"},
		} {
			form := validForm()
			form.Set(tc.field, tc.value)

			_, err := ParseForm(form)
			var fe *FieldError
			require.True(t, errors.As(err, &fe), tc.value)
			assert.Equal(t, tc.field, fe.Field)
			assert.Equal(t, "must be a number", fe.Reason)
		}
	})

	t.Run("Unknown Enum Value", func(t *testing.T) {
		form := validForm()
		form.Set("smokingStatus", "sometimes")

		_, err := ParseForm(form)
		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "smokingStatus", fe.Field)
		assert.Contains(t, fe.Reason, "never, former, current")
	})

	t.Run("Implausible Values Pass Through", func(t *testing.T) {
		form := validForm()
		form.Set("age", "-5")
		form.Set("systolicBP", "70")

		p, err := ParseForm(form)
		require.NoError(t, err)
		assert.Equal(t, -5, p.Age)
		assert.Len(t, PlausibilityWarnings(p), 2)
	})

	t.Run("No Lists Submitted", func(t *testing.T) {
		form := validForm()
		form.Del("existingConditions")
		form.Del("symptoms")

		p, err := ParseForm(form)
		require.NoError(t, err)
		assert.Equal(t, []string{}, p.ExistingConditions)
		assert.Equal(t, []string{}, p.Symptoms)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Lower Cases Enums", func(t *testing.T) {
		p := DefaultProfile()
		p.Cholesterol = " Borderline "
		p.PhysicalActivity = "ACTIVE"

		require.NoError(t, Normalize(&p))
		assert.Equal(t, CholesterolBorderline, p.Cholesterol)
		assert.Equal(t, ActivityActive, p.PhysicalActivity)
	})

	t.Run("Missing Enum", func(t *testing.T) {
		p := DefaultProfile()
		p.AlcoholConsumption = ""

		err := Normalize(&p)
		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "alcoholConsumption", fe.Field)
		assert.Equal(t, "is required", fe.Reason)
	})

	t.Run("Drops Blank Entries", func(t *testing.T) {
		p := DefaultProfile()
		p.Symptoms = []string{"", "  ", "Headache"}

		require.NoError(t, Normalize(&p))
		assert.Equal(t, []string{"Headache"}, p.Symptoms)
	})

	t.Run("Default Profile Is Valid", func(t *testing.T) {
		p := DefaultProfile()
		assert.NoError(t, Normalize(&p))
		assert.Empty(t, PlausibilityWarnings(p))
	})
}

func TestListEditing(t *testing.T) {
	base := DefaultProfile()

	withConditions := base.AddCondition(" Diabetes ").AddCondition("   ").AddCondition("Hypertension")
	assert.Equal(t, []string{"Diabetes", "Hypertension"}, withConditions.ExistingConditions)
	assert.Empty(t, base.ExistingConditions, "original profile must not change")

	removed := withConditions.RemoveCondition(0)
	assert.Equal(t, []string{"Hypertension"}, removed.ExistingConditions)
	assert.Equal(t, []string{"Diabetes", "Hypertension"}, withConditions.ExistingConditions)

	outOfRange := withConditions.RemoveCondition(7)
	assert.Equal(t, withConditions.ExistingConditions, outOfRange.ExistingConditions)

	withSymptoms := base.AddSymptom("Fatigue").AddSymptom("Dizziness").RemoveSymptom(1)
	assert.Equal(t, []string{"Fatigue"}, withSymptoms.Symptoms)
}
