package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultThresholdsMatchesDocumentedDefaults(t *testing.T) {
	d := DefaultThresholds()
	assert.Equal(t, 3, d.MinMentions)
	assert.Equal(t, 2, d.AliasCoOccurrenceK)
	assert.Equal(t, 0.5, d.ThetaMain)
	assert.Equal(t, 0.7, d.ThetaMainPlot)
	assert.Equal(t, 0.1, d.StateChangeThreshold)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("MIN_MENTIONS", "5")
	t.Setenv("THETA_MAIN", "0.75")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LEXICON_DIR", t.TempDir())
	t.Setenv("LOG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Thresholds.MinMentions)
	assert.Equal(t, 0.75, cfg.Thresholds.ThetaMain)
	// Untouched knobs keep their documented defaults.
	assert.Equal(t, 3.5, cfg.Thresholds.RelationStrengthK)
}

func TestInitConfigPersistsAndReloadsThresholds(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LEXICON_DIR", t.TempDir())
	t.Setenv("LOG_DIR", t.TempDir())

	require.NoError(t, InitConfig(dir))

	path := filepath.Join(dir, "thresholds.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved Thresholds
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, DefaultThresholds(), saved)

	cfg := Current()
	require.NotNil(t, cfg)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestGetEnvIntFallsBackOnInvalidValue(t *testing.T) {
	t.Setenv("GARBAGE_INT", "not-a-number")
	assert.Equal(t, 42, getEnvInt("GARBAGE_INT", 42))
}

func TestGetEnvFloatFallsBackOnInvalidValue(t *testing.T) {
	t.Setenv("GARBAGE_FLOAT", "not-a-float")
	assert.Equal(t, 1.5, getEnvFloat("GARBAGE_FLOAT", 1.5))
}

func TestGetEnvBoolRecognizesTrueVariants(t *testing.T) {
	for _, v := range []string{"true", "1", "yes"} {
		t.Setenv("GARBAGE_BOOL", v)
		assert.True(t, getEnvBool("GARBAGE_BOOL", false))
	}
	t.Setenv("GARBAGE_BOOL", "no")
	assert.False(t, getEnvBool("GARBAGE_BOOL", true))
}
