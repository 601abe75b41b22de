package symptom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

func TestQuestionsFor(t *testing.T) {
	counts := map[Category]int{
		Gastrointestinal: 6,
		Respiratory:      6,
		Cardiovascular:   4,
		Trauma:           4,
		Dermatologic:     4,
		Other:            4,
	}
	for c, n := range counts {
		qs, err := QuestionsFor(c)
		require.NoError(t, err)
		assert.Len(t, qs, n, c)
	}

	qs, _ := QuestionsFor(Gastrointestinal)
	assert.Equal(t, "nausea or vomiting", qs[0])
	assert.Equal(t, "fever", qs[5])

	_, err := QuestionsFor("neurologic")
	assert.True(t, apperr.IsNotFound(err))
}

func TestQuestionsFor_ReturnsCopy(t *testing.T) {
	qs, _ := QuestionsFor(Trauma)
	qs[0] = "changed"
	again, _ := QuestionsFor(Trauma)
	assert.Equal(t, "loss of consciousness", again[0])
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("3")
	require.NoError(t, err)
	assert.Equal(t, Cardiovascular, c)

	c, err = ParseCategory(" Respiratory ")
	require.NoError(t, err)
	assert.Equal(t, Respiratory, c)

	_, err = ParseCategory("7")
	var re *apperr.RangeError
	assert.True(t, errors.As(err, &re))

	_, err = ParseCategory("ortho")
	var fe *apperr.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestParseAnswer(t *testing.T) {
	for _, in := range []string{"S", "sim", "Y", "yes"} {
		b, err := ParseAnswer(in)
		require.NoError(t, err)
		assert.True(t, b, in)
	}
	for _, in := range []string{"N", "não", "no"} {
		b, err := ParseAnswer(in)
		require.NoError(t, err)
		assert.False(t, b, in)
	}
	_, err := ParseAnswer("maybe")
	var fe *apperr.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestBuildAnswers(t *testing.T) {
	a, err := BuildAnswers(Cardiovascular, []bool{true, false, false, true})
	require.NoError(t, err)
	require.Len(t, a, 4)
	assert.Equal(t, Answer{Question: "oppressive chest pain", Yes: true}, a[0])
	assert.Equal(t, "{oppressive chest pain: yes, palpitations: no, dizziness or fainting: no, lower-limb edema: yes}", a.String())

	_, err = BuildAnswers(Cardiovascular, []bool{true})
	var fe *apperr.FormatError
	assert.True(t, errors.As(err, &fe))
}
