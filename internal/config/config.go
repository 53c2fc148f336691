// Package config loads workflow configuration from YAML merged with
// environment variables (prefix CARDPIPE__, delimiter __).
package config

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	goerrors "errors"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/pipeline"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/registry"
)

const SupportedSchema = "v1"

type PipelineCfg struct {
	Steps                 []string `koanf:"steps"`
	CacheEnabled          bool     `koanf:"cache_enabled"`
	MaxCacheSize          int      `koanf:"max_cache_size"`
	PerformanceMonitoring bool     `koanf:"performance_monitoring"`
	ErrorHandling         string   `koanf:"error_handling"` // strict|tolerant
}

type CacheCfg struct {
	MaxEntries int           `koanf:"max_entries"`
	MaxAge     time.Duration `koanf:"max_age"`
	MaxMemory  int64         `koanf:"max_memory"`
}

type GeneratorCfg struct {
	WaitTimeout time.Duration `koanf:"wait_timeout"`
}

type LoggingCfg struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type File struct {
	SchemaVersion string       `koanf:"schema_version"`
	Pipeline      PipelineCfg  `koanf:"pipeline"`
	PreviewCache  CacheCfg     `koanf:"preview_cache"`
	Generator     GeneratorCfg `koanf:"generator"`
	Logging       LoggingCfg   `koanf:"logging"`
}

// Load merges YAML (if present) with env vars and applies defaults.
func Load(path string) (File, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!goerrors.Is(err, fs.ErrNotExist) {
			return File{}, err
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return File{}, fmt.Errorf("config schema_version %q not supported (want %q)", sv, SupportedSchema)
	}

	_ = k.Load(env.Provider("CARDPIPE__", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CARDPIPE__")), "__", ".")
	}), nil)

	// Caching and monitoring default on; only an explicit key turns them off.
	cacheEnabledSet := k.Exists("pipeline.cache_enabled")
	monitoringSet := k.Exists("pipeline.performance_monitoring")

	var cfg File
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	if !cacheEnabledSet {
		cfg.Pipeline.CacheEnabled = true
	}
	if !monitoringSet {
		cfg.Pipeline.PerformanceMonitoring = true
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(c *File) {
	if c.SchemaVersion == "" {
		c.SchemaVersion = SupportedSchema
	}
	if c.Pipeline.MaxCacheSize == 0 {
		c.Pipeline.MaxCacheSize = pipeline.DefaultCacheSize
	}
	if c.Pipeline.ErrorHandling == "" {
		c.Pipeline.ErrorHandling = string(pipeline.ErrorModeStrict)
	}
	if c.PreviewCache.MaxEntries == 0 {
		c.PreviewCache.MaxEntries = 50
	}
	if c.PreviewCache.MaxAge == 0 {
		c.PreviewCache.MaxAge = 10 * time.Minute
	}
	if c.Generator.WaitTimeout == 0 {
		c.Generator.WaitTimeout = 5 * time.Second
	}
}

// PipelineOptions resolves the configured step ids against the registry
// and returns pipeline options reflecting the loaded configuration.
func PipelineOptions(cfg File, reg *registry.Registry) (pipeline.Options, error) {
	opts, err := reg.NewPipelineOptions(cfg.Pipeline.Steps)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts.CacheEnabled = cfg.Pipeline.CacheEnabled
	opts.MaxCacheSize = cfg.Pipeline.MaxCacheSize
	opts.PerformanceMonitoring = cfg.Pipeline.PerformanceMonitoring
	opts.ErrorHandling = pipeline.ErrorMode(cfg.Pipeline.ErrorHandling)
	return opts, nil
}
