package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Defaults().MaxEntries, cfg.MaxEntries)
	assert.Equal(t, Defaults().CloneThreshold, cfg.CloneThreshold)
}

func TestLoadRejectsMissingConfigFileSilently(t *testing.T) {
	t.Parallel()

	_, err := Load(viper.New(), "/nonexistent/.codemap.toml")
	require.NoError(t, err)
}

func TestValidateRejectsOutOfRangeThreshold(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.CloneThreshold = 1.5
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsNonPositiveMaxEntries(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.MaxEntries = 0
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.LogFormat = "xml"
	err := cfg.Validate()
	require.Error(t, err)
}

func TestMarshalTOMLIncludesKeys(t *testing.T) {
	t.Parallel()

	data, err := MarshalTOML(Defaults())
	require.NoError(t, err)
	assert.Contains(t, string(data), "maxEntries")
}
