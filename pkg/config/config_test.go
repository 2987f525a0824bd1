package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Index.NgramSize)
	assert.False(t, cfg.Index.FirstLetter)
	assert.Zero(t, cfg.Index.BucketCap)
	assert.Equal(t, 100, cfg.Index.ResultLimit)
	assert.Equal(t, "name", cfg.Dataset.NameField)
	assert.False(t, cfg.Dataset.Disk)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 3000

[index]
ngram_size = 3
first_letter = true
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Index.NgramSize)
	assert.True(t, cfg.Index.FirstLetter)
	assert.Equal(t, 100, cfg.Index.ResultLimit, "unset keys keep their defaults")
}

func TestInitConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := InitConfig(path)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	// A second init reads the file it just wrote.
	cfg = InitConfig(path)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseArgsDefaults(t *testing.T) {
	flags, err := ParseArgs("test", []string{"data.ndjson"})
	require.NoError(t, err)
	assert.Equal(t, []string{"data.ndjson"}, flags.Datasets)
	assert.Equal(t, 8080, flags.Config.Server.Port)
	assert.Equal(t, 2, flags.Config.Index.NgramSize)
}

func TestParseArgsFlags(t *testing.T) {
	flags, err := ParseArgs("test", []string{
		"a.ndjson", "b.ndjson", "-p", "3000", "-nf", "title", "-l", "5",
		"-bc", "1000", "-tri", "-fl", "-disk", "-dc",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ndjson", "b.ndjson"}, flags.Datasets)
	cfg := flags.Config
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "title", cfg.Dataset.NameField)
	assert.Equal(t, 5, cfg.Index.ResultLimit)
	assert.Equal(t, int64(1000), cfg.Index.BucketCap)
	assert.Equal(t, 3, cfg.Index.NgramSize)
	assert.True(t, cfg.Index.FirstLetter)
	assert.True(t, cfg.Dataset.Disk)
	assert.True(t, cfg.Dataset.DuplicateCheck)
}

func TestParseArgsLongAliases(t *testing.T) {
	flags, err := ParseArgs("test", []string{
		"-port", "9000", "-name-field", "label", "-limit", "0",
		"-bucket-cap", "-1", "-tetra", "data.ndjson",
	})
	require.NoError(t, err)
	cfg := flags.Config
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "label", cfg.Dataset.NameField)
	assert.Zero(t, cfg.Index.ResultLimit, "0 means unlimited")
	assert.Zero(t, cfg.Index.BucketCap, "negative coerces to unlimited")
	assert.Equal(t, 4, cfg.Index.NgramSize)
}

func TestParseArgsErrors(t *testing.T) {
	testCases := []struct {
		args        []string
		description string
	}{
		{[]string{}, "no datasets"},
		{[]string{"data.ndjson", "-p", "0"}, "port zero"},
		{[]string{"data.ndjson", "-p", "abc"}, "non-integer port"},
		{[]string{"data.ndjson", "-bogus"}, "unknown flag"},
	}
	for _, tc := range testCases {
		_, err := ParseArgs("test", tc.args)
		assert.Error(t, err, tc.description)
	}
}

func TestParseArgsConfigFilePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 3000

[index]
result_limit = 7
`), 0644))

	flags, err := ParseArgs("test", []string{"data.ndjson", "-config", path, "-p", "4000"})
	require.NoError(t, err)
	assert.Equal(t, 4000, flags.Config.Server.Port, "explicit flag beats the file")
	assert.Equal(t, 7, flags.Config.Index.ResultLimit, "file beats the builtin default")
}

func TestParseArgsVersion(t *testing.T) {
	flags, err := ParseArgs("test", []string{"-version"})
	require.NoError(t, err, "version skips dataset validation")
	assert.True(t, flags.Version)
}
