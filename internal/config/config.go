// Package config loads process configuration from DOCLING_-prefixed
// environment variables (plus DOCUMENTAI_LOCATION for the Document AI
// region) with CLI flag overrides, mirroring the teacher's
// utils.GetEnv/GetEnvAsInt env-first convention.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
	"github.com/dmorozov/docling-orchestrator/internal/janitor"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

// Config is the fully resolved set of process-level settings named in
// spec.md §6.
type Config struct {
	Host               string
	Port               int
	AuthToken          string
	AuthMode           string // "static" (default) or "jwt"
	ProcessingTier     domain.Tier
	TempDir            string
	MaxConcurrentJobs  int
	LogLevel           string
	TimeoutBaseSeconds int
	TimeoutPerPage     int

	// ConfigFile, when set, points at an optional YAML overlay applied
	// after env/flag resolution: every field the file sets overrides the
	// flag or environment value (see Load).
	ConfigFile string

	// ArchiveDB, when set, enables the optional terminal-job SQLite mirror.
	ArchiveDB string

	// GCP conversion-engine settings.
	GCPProjectID        string
	GCPLocation         string
	GCPProcessorID      string
	GCPProcessorVersion string
	GCPStagingBucket    string

	// OTLP endpoint for trace export; empty means stdout exporter only.
	OTLPEndpoint string
}

// Load parses CLI flags (falling back to DOCLING_-prefixed environment
// variables for each) and returns the resolved Config. log is used only to
// report which values came from the environment versus defaults; it may be
// nil during early startup before the logger is constructed.
func Load(args []string, log *logger.Logger) (Config, error) {
	fs := flag.NewFlagSet("docling-server", flag.ContinueOnError)

	host := fs.String("host", getEnv("DOCLING_HOST", "127.0.0.1", log), "host to bind to")
	port := fs.Int("port", getEnvInt("DOCLING_PORT", 8001, log), "port to listen on")
	authToken := fs.String("auth-token", getEnv("DOCLING_AUTH_TOKEN", "", log), "shared bearer token; empty disables auth")
	tier := fs.String("processing-tier", getEnv("DOCLING_PROCESSING_TIER", "standard", log), "default processing tier: lightweight|standard|advanced")
	tempDir := fs.String("temp-folder", getEnv("DOCLING_TEMP_DIR", getEnv("DOCLING_TEMP_FOLDER", janitor.DefaultTempDir(), log), log), "scratch directory for per-job files")
	maxConcurrent := fs.Int("max-concurrent", getEnvInt("DOCLING_MAX_CONCURRENT_JOBS", 1, log), "worker pool size: 1|2|3")
	logLevel := fs.String("log-level", getEnv("DOCLING_LOG_LEVEL", "INFO", log), "DEBUG|INFO|WARNING|ERROR")
	configFile := fs.String("config-file", getEnv("DOCLING_CONFIG_FILE", "", log), "optional YAML config overlay")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Host:                *host,
		Port:                *port,
		AuthToken:           *authToken,
		AuthMode:            getEnv("DOCLING_AUTH_MODE", "static", log),
		ProcessingTier:      domain.Tier(*tier),
		TempDir:             *tempDir,
		MaxConcurrentJobs:   clampWorkers(*maxConcurrent),
		LogLevel:            *logLevel,
		TimeoutBaseSeconds:  getEnvInt("DOCLING_TIMEOUT_BASE_SECONDS", 60, log),
		TimeoutPerPage:      getEnvInt("DOCLING_TIMEOUT_PER_PAGE_SECONDS", 10, log),
		ConfigFile:          *configFile,
		ArchiveDB:           getEnv("DOCLING_ARCHIVE_DB", "", log),
		GCPProjectID:        getEnv("DOCLING_GCP_PROJECT_ID", "", log),
		GCPLocation:         getEnv("DOCUMENTAI_LOCATION", "us", log),
		GCPProcessorID:      getEnv("DOCLING_GCP_PROCESSOR_ID", "", log),
		GCPProcessorVersion: getEnv("DOCLING_GCP_PROCESSOR_VERSION", "", log),
		GCPStagingBucket:    getEnv("DOCLING_GCP_STAGING_BUCKET", "", log),
		OTLPEndpoint:        getEnv("DOCLING_OTLP_ENDPOINT", "", log),
	}

	if cfg.ConfigFile != "" {
		if err := applyYAMLOverlay(cfg.ConfigFile, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: applying --config-file overlay: %w", err)
		}
	}

	switch cfg.ProcessingTier {
	case domain.TierLightweight, domain.TierStandard, domain.TierAdvanced:
	default:
		return Config{}, fmt.Errorf("config: invalid processing-tier %q", cfg.ProcessingTier)
	}

	return cfg, nil
}

func clampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > 3 {
		return 3
	}
	return n
}

func getEnv(key, def string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	v, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("environment variable not found, using default", "default", def)
		}
		return def
	}
	if log != nil {
		log.Debug("environment variable found, using environment", "value", v)
	}
	return v
}

func getEnvInt(key string, def int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	v, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("environment variable not found, using default", "default", def)
		}
		return def
	}
	var i int
	if _, err := fmt.Sscanf(v, "%d", &i); err != nil {
		if log != nil {
			log.Debug("environment variable could not be parsed as int, using default", "provided", v, "default", def)
		}
		return def
	}
	return i
}
