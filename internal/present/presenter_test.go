package present

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/changelog/pkg/api"
)

func TestParseMode(t *testing.T) {
	for _, name := range ModeNames {
		m, ok := ParseMode(name)
		require.True(t, ok, name)
		assert.Equal(t, name, m.String())
	}
	_, ok := ParseMode("yaml")
	assert.False(t, ok)
}

func TestRenderChangelogsEmpty(t *testing.T) {
	ctx := context.Background()
	cases := map[Mode]string{
		ModePlain:  "No changelog available.",
		ModePretty: "No changelog available.",
		ModeHTML:   "No changelog available.",
		ModeTUI:    "No changelog available.",
		ModeJSON:   "[]",
	}
	for mode, want := range cases {
		var buf bytes.Buffer
		require.NoError(t, RenderChangelogs(ctx, &buf, nil, Options{Mode: mode, Style: "notty"}), mode.String())
		assert.Contains(t, buf.String(), want, mode.String())
	}
}

func TestRenderChangelog(t *testing.T) {
	e := api.Entry{Version: "2.0.0", Text: "Big **news**"}
	var buf bytes.Buffer
	require.NoError(t, RenderChangelog(context.Background(), &buf, e, Options{Mode: ModeHTML}))
	assert.Contains(t, buf.String(), "<strong>news</strong>")

	buf.Reset()
	require.NoError(t, RenderChangelog(context.Background(), &buf, e, Options{Mode: ModePlain}))
	assert.True(t, strings.HasPrefix(buf.String(), "2.0.0"))
	assert.Contains(t, buf.String(), "Big news")
}
