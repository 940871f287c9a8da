package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
)

// yamlOverlay is the subset of Config an operator may override from a YAML
// file. The overlay only touches fields the file actually sets; for those it
// replaces whatever the flags, environment or defaults produced.
type yamlOverlay struct {
	Host               *string `yaml:"host"`
	Port               *int    `yaml:"port"`
	ProcessingTier     *string `yaml:"processing_tier"`
	MaxConcurrentJobs  *int    `yaml:"max_concurrent_jobs"`
	LogLevel           *string `yaml:"log_level"`
	TimeoutBaseSeconds *int    `yaml:"timeout_base_seconds"`
	TimeoutPerPage     *int    `yaml:"timeout_per_page_seconds"`
	GCPProjectID       *string `yaml:"gcp_project_id"`
	GCPProcessorID     *string `yaml:"gcp_processor_id"`
	GCPStagingBucket   *string `yaml:"gcp_staging_bucket"`
}

// applyYAMLOverlay reads path and merges any fields it sets into cfg. It is
// applied after flag/env resolution but only overwrites fields the operator
// chose to set in the file, so flags still take precedence for everything
// else — a missing file or malformed YAML is returned as an error since the
// operator explicitly asked for this file to be loaded.
func applyYAMLOverlay(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}

	if overlay.Host != nil {
		cfg.Host = *overlay.Host
	}
	if overlay.Port != nil {
		cfg.Port = *overlay.Port
	}
	if overlay.ProcessingTier != nil {
		cfg.ProcessingTier = domain.Tier(*overlay.ProcessingTier)
	}
	if overlay.MaxConcurrentJobs != nil {
		cfg.MaxConcurrentJobs = clampWorkers(*overlay.MaxConcurrentJobs)
	}
	if overlay.LogLevel != nil {
		cfg.LogLevel = *overlay.LogLevel
	}
	if overlay.TimeoutBaseSeconds != nil {
		cfg.TimeoutBaseSeconds = *overlay.TimeoutBaseSeconds
	}
	if overlay.TimeoutPerPage != nil {
		cfg.TimeoutPerPage = *overlay.TimeoutPerPage
	}
	if overlay.GCPProjectID != nil {
		cfg.GCPProjectID = *overlay.GCPProjectID
	}
	if overlay.GCPProcessorID != nil {
		cfg.GCPProcessorID = *overlay.GCPProcessorID
	}
	if overlay.GCPStagingBucket != nil {
		cfg.GCPStagingBucket = *overlay.GCPStagingBucket
	}

	return nil
}
