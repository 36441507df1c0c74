package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FlagsOverrideConfig(t *testing.T) {
	inTempDir(t)
	writeFile(t, "tursu.hcl", `features = ["from-config"]
tags = "@config"
language = "tr"
`)

	s, err := resolve("", []string{"from-flag"}, "@flag", "de")

	require.NoError(t, err)
	assert.Equal(t, []string{"from-flag"}, s.dirs)
	assert.Equal(t, "@flag", s.tags)
	assert.Equal(t, "de", s.language)
}

func TestResolve_ConfigFillsMissingFlags(t *testing.T) {
	inTempDir(t)
	writeFile(t, "tursu.hcl", `features = ["from-config"]
tags = "@config"
language = "tr"
`)

	s, err := resolve("", nil, "", "")

	require.NoError(t, err)
	assert.Equal(t, []string{"from-config"}, s.dirs)
	assert.Equal(t, "@config", s.tags)
	assert.Equal(t, "tr", s.language)
}

func TestResolve_DefaultsWithoutConfig(t *testing.T) {
	inTempDir(t)

	s, err := resolve("", nil, "", "")

	require.NoError(t, err)
	assert.Equal(t, []string{"."}, s.dirs)
	assert.Empty(t, s.tags)
	assert.Empty(t, s.language)
	assert.Equal(t, ".tursu/history.db", s.cfg.Check.History)
}
