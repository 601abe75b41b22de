package vitals

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

func TestValidate_Boundaries(t *testing.T) {
	tests := []struct {
		vital    Vital
		value    int
		valid    bool
		abnormal bool
	}{
		{HeartRate, 39, false, false},
		{HeartRate, 40, true, true},
		{HeartRate, 65, true, true},
		{HeartRate, 70, true, false},
		{HeartRate, 120, true, false},
		{HeartRate, 121, true, true},
		{HeartRate, 200, true, true},
		{HeartRate, 250, false, false},
		{SystolicBP, 69, false, false},
		{SystolicBP, 89, true, true},
		{SystolicBP, 90, true, false},
		{SystolicBP, 140, true, false},
		{SystolicBP, 250, true, true},
		{SystolicBP, 251, false, false},
		{DiastolicBP, 40, true, true},
		{DiastolicBP, 60, true, false},
		{DiastolicBP, 90, true, false},
		{DiastolicBP, 91, true, true},
		{DiastolicBP, 151, false, false},
		{OxygenSaturation, 84, false, false},
		{OxygenSaturation, 85, true, true},
		{OxygenSaturation, 94, true, true},
		{OxygenSaturation, 95, true, false},
		{OxygenSaturation, 100, true, false},
		{OxygenSaturation, 101, false, false},
	}
	for _, tt := range tests {
		r, err := Validate(tt.vital, tt.value)
		if !tt.valid {
			var re *apperr.RangeError
			require.Error(t, err, "%s=%d", tt.vital, tt.value)
			assert.True(t, errors.As(err, &re))
			continue
		}
		require.NoError(t, err, "%s=%d", tt.vital, tt.value)
		assert.Equal(t, tt.value, r.Value)
		assert.Equal(t, tt.abnormal, r.Abnormal, "%s=%d", tt.vital, tt.value)
	}
}

func TestParse_RejectsNonNumeric(t *testing.T) {
	_, err := Parse(HeartRate, "fast")
	var fe *apperr.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "heart_rate", fe.Field)

	r, err := Parse(HeartRate, " 80 ")
	require.NoError(t, err)
	assert.Equal(t, 80, r.Value)
	assert.False(t, r.Abnormal)
}

func TestValidate_UnknownVital(t *testing.T) {
	_, err := Validate("temperature", 37)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAssess_IsLogicalOr(t *testing.T) {
	hr, _ := Validate(HeartRate, 65)
	sys, _ := Validate(SystolicBP, 120)
	dia, _ := Validate(DiastolicBP, 80)
	ox, _ := Validate(OxygenSaturation, 97)

	a := Assess(hr, sys, dia, ox)
	assert.True(t, a.AnyAbnormal())
	assert.Equal(t, []Vital{HeartRate}, a.Abnormal)

	hr, _ = Validate(HeartRate, 80)
	a = Assess(hr, sys, dia, ox)
	assert.False(t, a.AnyAbnormal())

	v, ok := a.Value(OxygenSaturation)
	assert.True(t, ok)
	assert.Equal(t, 97, v)
}

func TestAll_CaptureOrder(t *testing.T) {
	defs := All()
	require.Len(t, defs, 4)
	assert.Equal(t, HeartRate, defs[0].Vital)
	assert.Equal(t, OxygenSaturation, defs[3].Vital)
}
