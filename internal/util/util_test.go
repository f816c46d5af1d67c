package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCompletions(t *testing.T) {
	versions := []string{"1.9.0", "1.8.2", "1.8.1", "1.7.0"}

	assert.Equal(t, versions[:2], ScoreCompletions("", versions, 2))
	assert.Equal(t, versions, ScoreCompletions("", versions, 0))

	got := ScoreCompletions("1.8", versions, 5)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"1.8.2", "1.8.1"}, got)

	assert.Nil(t, ScoreCompletions("zzz", versions, 5))
}

func TestScoreCompletionsPrefersPrefix(t *testing.T) {
	versions := []string{"1.12.0", "v1.2.1", "1.2.0", "1.1.2"}

	got := ScoreCompletions("1.2", versions, 0)
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, []string{"v1.2.1", "1.2.0"}, got[:2])
	assert.Contains(t, got, "1.12.0")

	assert.Equal(t, []string{"v1.2.1"}, ScoreCompletions("1.2", versions, 1))
	assert.Equal(t, []string{"1.2.0"}, ScoreCompletions("1.2", []string{"1.2.0", "1.2.0"}, 0))
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		in   string
		want time.Time
	}{
		{"", time.Time{}},
		{"2h", now.Add(-2 * time.Hour)},
		{"3d", now.AddDate(0, 0, -3)},
		{"2w", now.AddDate(0, 0, -14)},
		{"1mo", now.AddDate(0, -1, 0)},
		{"1y", now.AddDate(-1, 0, 0)},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02T03:04", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSince(tc.in, now)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s want %s", got, tc.want)
		})
	}
}

func TestParseSinceErrors(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	for _, in := range []string{"yesterday", "xd", "-3d", "2030-01-01"} {
		_, err := ParseSince(in, now)
		assert.Error(t, err, in)
	}
}
