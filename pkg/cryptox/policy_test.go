package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		password string
		strong   bool
	}{
		{"too short", "Ab1!", false},
		{"too long", strings.Repeat("Ab1!", 40), false},
		{"common password", "password", false},
		{"common with decoration", "Password123!", false},
		{"single class", "aaaaaaaaaaaa", false},
		{"missing symbol", "Abcdefg123", false},
		{"sequential run", "Abcdefgh1!", false},
		{"repeated run", "Azzzz123!", false},
		{"all four classes at minimum length", "Abcd123!", true},
		{"xkcd-grade", "Tr0ub4dor&3!", true},
		{"long passphrase", "correct-Horse-b4ttery!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(tt.password)
			require.Equal(t, tt.strong, res.Strong, "score=%d suggestions=%v", res.Score, res.Suggestions)

			// Strong means nothing left to suggest, and vice versa a weak
			// password always gets told why.
			if tt.strong {
				require.Empty(t, res.Suggestions)
				require.GreaterOrEqual(t, res.Score, 4)
			} else {
				require.NotEmpty(t, res.Suggestions)
			}
		})
	}
}

func TestScoreShortCircuitsBelowMinLength(t *testing.T) {
	res := Score("Ab1!")
	require.Zero(t, res.Score)
	require.Equal(t, []string{"use at least 8 characters"}, res.Suggestions)
}

func TestScoreLengthBonuses(t *testing.T) {
	base := Score("Abcx935!")
	at12 := Score("Abcx935!qwkz")
	at16 := Score("Abcx935!qwkzmvp7")

	require.Equal(t, base.Score+1, at12.Score)
	require.Equal(t, base.Score+2, at16.Score)
}
