package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, domain.TierStandard, cfg.ProcessingTier)
	assert.Equal(t, 1, cfg.MaxConcurrentJobs)
	assert.Equal(t, 60, cfg.TimeoutBaseSeconds)
	assert.Equal(t, 10, cfg.TimeoutPerPage)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load([]string{"--host", "0.0.0.0", "--port", "9000", "--max-concurrent", "7"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3, cfg.MaxConcurrentJobs, "max-concurrent must clamp to 3")
}

func TestLoadRejectsInvalidTier(t *testing.T) {
	_, err := Load([]string{"--processing-tier", "bogus"}, nil)
	assert.Error(t, err)
}
