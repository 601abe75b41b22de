package exam

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, 23)
	assert.Equal(t, AbdominalUltrasound, all[0])
	assert.Equal(t, PsychiatricEvaluation, all[22])
}

func TestLookup(t *testing.T) {
	got, err := Lookup("ecg")
	require.NoError(t, err)
	assert.Equal(t, ECG, got)

	got, err = Lookup("2")
	require.NoError(t, err)
	assert.Equal(t, BloodCount, got)

	_, err = Lookup("24")
	var re *apperr.RangeError
	assert.True(t, errors.As(err, &re))

	_, err = Lookup("MRI")
	assert.True(t, apperr.IsNotFound(err))

	_, err = Lookup(string(SymptomaticManagement))
	assert.True(t, apperr.IsNotFound(err))
}

func TestRecordable(t *testing.T) {
	assert.True(t, ChestXRay.Recordable())
	assert.False(t, SpirometryOrPEFR.Recordable())
}

func TestResult_LedgerText(t *testing.T) {
	r := Result{Type: BNP, Result: "450 pg/mL"}
	assert.Equal(t, "Exam: BNP | Result: 450 pg/mL", r.LedgerText())
}
