package patient

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPatient() Patient {
	return Patient{
		ID:     "P001",
		Name:   "Ananya Verma",
		City:   "Guwahati",
		Age:    28,
		Gender: GenderFemale,
		Height: 1.65,
		Weight: 90,
	}
}

func TestPatient_BMI(t *testing.T) {
	p := validPatient()
	assert.Equal(t, 33.06, p.BMI())

	p.Height, p.Weight = 1.75, 70
	assert.Equal(t, 22.86, p.BMI())
}

func TestVerdictFor(t *testing.T) {
	tests := []struct {
		bmi  float64
		want string
	}{
		{bmi: 10, want: VerdictUnderweight},
		{bmi: 18.49, want: VerdictUnderweight},
		{bmi: 18.5, want: VerdictNormal},
		{bmi: 24.99, want: VerdictNormal},
		{bmi: 25, want: VerdictOverweight},
		{bmi: 29.99, want: VerdictOverweight},
		{bmi: 30, want: VerdictObese},
		{bmi: 55.2, want: VerdictObese},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, VerdictFor(tt.bmi), "bmi %.2f", tt.bmi)
	}
}

func TestPatient_Record_excludesIDAndIncludesComputed(t *testing.T) {
	p := validPatient()
	rec := p.Record()

	assert.Equal(t, Record{
		Name:    "Ananya Verma",
		City:    "Guwahati",
		Age:     28,
		Gender:  GenderFemale,
		Height:  1.65,
		Weight:  90,
		BMI:     33.06,
		Verdict: VerdictObese,
	}, rec)

	back := FromRecord("P001", rec)
	assert.Equal(t, p, back)
}

func TestPatient_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Patient)
		field  string
		tag    string
	}{
		{name: "missing id", mutate: func(p *Patient) { p.ID = "" }, field: "ID", tag: "required"},
		{name: "missing name", mutate: func(p *Patient) { p.Name = "" }, field: "Name", tag: "required"},
		{name: "zero age", mutate: func(p *Patient) { p.Age = 0 }, field: "Age", tag: "gt"},
		{name: "age too high", mutate: func(p *Patient) { p.Age = 120 }, field: "Age", tag: "lt"},
		{name: "unknown gender", mutate: func(p *Patient) { p.Gender = "robot" }, field: "Gender", tag: "oneof"},
		{name: "zero height", mutate: func(p *Patient) { p.Height = 0 }, field: "Height", tag: "gt"},
		{name: "negative weight", mutate: func(p *Patient) { p.Weight = -1 }, field: "Weight", tag: "gt"},
		{name: "bmi overflows", mutate: func(p *Patient) { p.Height = 1e-160 }, field: "Height", tag: "finite_bmi"},
		{name: "bmi overflows on rounding", mutate: func(p *Patient) { p.Height, p.Weight = 1, 1e307 }, field: "Height", tag: "finite_bmi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPatient()
			tt.mutate(&p)

			err := p.Validate()
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field())
			assert.Equal(t, tt.tag, verrs[0].Tag())
		})
	}

	p := validPatient()
	assert.NoError(t, p.Validate())
}

func TestUpdate_ApplyTo(t *testing.T) {
	city := "Delhi"
	weight := 60.0
	u := Update{City: &city, Weight: &weight}

	require.False(t, u.IsEmpty())

	merged := u.ApplyTo(validPatient())
	assert.Equal(t, "Delhi", merged.City)
	assert.Equal(t, 60.0, merged.Weight)
	assert.Equal(t, "Ananya Verma", merged.Name)
	assert.Equal(t, 22.04, merged.BMI())
	assert.Equal(t, VerdictNormal, merged.Verdict())
}

func TestUpdate_Validate(t *testing.T) {
	assert.True(t, (&Update{}).IsEmpty())
	assert.NoError(t, (&Update{}).Validate())

	gender := "robot"
	assert.Error(t, (&Update{Gender: &gender}).Validate())

	gender = GenderOthers
	assert.NoError(t, (&Update{Gender: &gender}).Validate())

	// Bounds are not checked on the partial itself.
	age := 500
	assert.NoError(t, (&Update{Age: &age}).Validate())
}
