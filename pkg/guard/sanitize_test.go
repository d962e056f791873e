package guard_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classtrack/gatehouse/pkg/guard"
)

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"clean text passes through", "week 3 lecture notes", "week 3 lecture notes"},
		{"single quote", "O'Brien", `O\'Brien`},
		{"double quote", `say "hi"`, `say \"hi\"`},
		{"backslash", `C:\temp`, `C:\\temp`},
		{"percent wildcard", "100% done", `100\% done`},
		{"control characters stripped", "line1\nline2\ttab\x00", "line1line2tab"},
		{"mixed", "it's 50%\n", `it\'s 50\%`},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, guard.SanitizeString(tc.in))
		})
	}
}

func TestSanitizeStringStableOnSafeInput(t *testing.T) {
	safe := "nothing dangerous here 123"
	once := guard.SanitizeString(safe)
	require.Equal(t, safe, once)
	require.Equal(t, once, guard.SanitizeString(once))
}

func TestSanitizeWalksNestedPayloads(t *testing.T) {
	payload := map[string]any{
		"name":  "O'Brien",
		"notes": []any{"100%", map[string]any{`key"`: "v\x01alue"}},
		"count": 7,
		"ok":    true,
	}

	got, ok := guard.Sanitize(payload).(map[string]any)
	require.True(t, ok)

	require.Equal(t, `O\'Brien`, got["name"])
	require.Equal(t, 7, got["count"])
	require.Equal(t, true, got["ok"])

	notes, ok := got["notes"].([]any)
	require.True(t, ok)
	require.Equal(t, `100\%`, notes[0])

	inner, ok := notes[1].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "value", inner[`key\"`])
}

func TestSanitizeLeavesUnknownLeavesAlone(t *testing.T) {
	require.Equal(t, 3.14, guard.Sanitize(3.14))
	require.Nil(t, guard.Sanitize(nil))
}
