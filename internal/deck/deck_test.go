package deck

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Separators(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"commas", "1, 2, 3", []string{"1", "2", "3"}},
		{"semicolons", "XS;S;M;L", []string{"XS", "S", "M", "L"}},
		{"newlines", "1\n2\n3", []string{"1", "2", "3"}},
		{"mixed", "1, 2; 3\n5", []string{"1", "2", "3", "5"}},
		{"empty tokens dropped", ",, 1, ,2,", []string{"1", "2"}},
		{"whitespace trimmed", "  8 ,  13  ", []string{"8", "13"}},
		{"duplicates keep first", "1, 2, 1, 3, 2", []string{"1", "2", "3"}},
		{"empty input", "", nil},
		{"only separators", ",;\n;", nil},
		{"multi-word cards", "1, Break, Coffee break", []string{"1", "Break", "Coffee break"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	inputs := []string{
		"0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, ?, Break",
		"XS;S;M;L;XL",
		"1\n1\n2,2;3",
		"  a ,, b ;; c  ",
	}
	for _, raw := range inputs {
		once := Parse(raw)
		again := Parse(Serialize(once))
		assert.Equal(t, once, again, "parse/serialize round trip for %q", raw)
	}
}

func TestGenerateRange_HalfSteps(t *testing.T) {
	got, err := GenerateRange("0", "21", "0.5")
	require.NoError(t, err)
	require.Len(t, got, 43)

	assert.Equal(t, "0.0", got[0])
	assert.Equal(t, "0.5", got[1])
	assert.Equal(t, "1.0", got[2])
	assert.Equal(t, "21.0", got[42])

	// Every value carries exactly one fractional digit.
	for _, v := range got {
		assert.Regexp(t, `^\d+\.\d$`, v)
	}
}

func TestGenerateRange_Descending(t *testing.T) {
	got, err := GenerateRange("5", "1", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "4", "3", "2", "1"}, got)
}

func TestGenerateRange_NegativeStepStillSteps(t *testing.T) {
	got, err := GenerateRange("1", "3", "-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestGenerateRange_Invalid(t *testing.T) {
	tests := []struct {
		min, max, step string
	}{
		{"0", "10", "0"},
		{"0", "10", "0.0"},
		{"abc", "10", "1"},
		{"0", "ten", "1"},
		{"0", "10", "x"},
		{"", "10", "1"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s_%s", tt.min, tt.max, tt.step), func(t *testing.T) {
			got, err := GenerateRange(tt.min, tt.max, tt.step)
			assert.ErrorIs(t, err, ErrInvalidRange)
			assert.Nil(t, got)
		})
	}
}

func TestGenerateRange_CapsAtFiveHundred(t *testing.T) {
	got, err := GenerateRange("0", "100000", "1")
	require.NoError(t, err)
	assert.Len(t, got, 500)
	assert.Equal(t, "499", got[499])
}

func TestGenerateRange_NoDriftOverManySteps(t *testing.T) {
	got, err := GenerateRange("0", "49.9", "0.1")
	require.NoError(t, err)
	require.Len(t, got, 500)
	assert.Equal(t, "0.3", got[3])
	assert.Equal(t, "49.9", got[499])
}

func TestDefaultDeckSurvivesParse(t *testing.T) {
	assert.Equal(t, Default, Parse(Serialize(Default)))
}
