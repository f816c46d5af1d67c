package wire

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/changelog/internal/keys"
)

func testConfig(t *testing.T) *viper.Viper {
	v := viper.New()
	v.Set("data_dir", filepath.Join(t.TempDir(), "data"))
	v.Set("repo", "owner/repo")
	v.Set("source.kind", "api")
	v.Set("github.api_url", "http://127.0.0.1:1")
	v.Set("log.level", "debug")
	return v
}

func TestBuildAppSQLite(t *testing.T) {
	v := testConfig(t)
	app, err := BuildApp(context.Background(), v, Options{Tokens: &keys.ConfigStore{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Equal(t, "owner/repo", app.Source.Repo().String())
	assert.Equal(t, "owner/repo", app.State.State().Repo)
	assert.Equal(t, logrus.DebugLevel, app.Log.GetLevel())
	assert.FileExists(t, filepath.Join(v.GetString("data_dir"), "changelog.db"))
}

func TestBuildAppRejectsBadRepo(t *testing.T) {
	v := testConfig(t)
	v.Set("repo", "nope")
	_, err := BuildApp(context.Background(), v, Options{DBURL: "mem://"})
	assert.Error(t, err)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	v := viper.New()
	v.Set("log.level", "chatty")
	var buf bytes.Buffer
	log := NewLogger(v, &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	log.WithField("component", "test").Warn("hello")
	assert.Contains(t, buf.String(), "component=test")
}
