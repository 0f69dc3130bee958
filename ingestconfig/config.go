// Package ingestconfig loads an ingest.ConvertOptions from a YAML file,
// the same read-unmarshal-translate shape core/program.go uses for its
// own array configuration.
package ingestconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/rhgforge/ingest"
	"github.com/sarchlab/rhgforge/rhglog"
)

// yamlRoot mirrors ConvertOptions' fields one-for-one; every field is
// optional and falls back to ingest.NewConvertOptions' default.
type yamlRoot struct {
	AbortOnError      *bool   `yaml:"abort_on_error"`
	EnableLogging     *bool   `yaml:"enable_logging"`
	LogLevel          *string `yaml:"log_level"`
	EnableTiming      *bool   `yaml:"enable_timing"`
	MaxLoopIterations *int    `yaml:"max_loop_iterations"`
	ThreadCount       *int    `yaml:"thread_count"`
	SingleThread      *bool   `yaml:"single_thread"`
}

var logLevels = map[string]rhglog.LogLevel{
	"trace": rhglog.Trace,
	"debug": rhglog.Debug,
	"info":  rhglog.Info,
	"warn":  rhglog.Warn,
	"error": rhglog.Error,
	"off":   rhglog.Off,
}

// Load reads path and returns the ConvertOptions it describes, layered
// over ingest.NewConvertOptions' defaults.
func Load(path string) (ingest.ConvertOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.ConvertOptions{}, fmt.Errorf("ingestconfig: read %s: %w", path, err)
	}

	var root yamlRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return ingest.ConvertOptions{}, fmt.Errorf("ingestconfig: parse %s: %w", path, err)
	}

	opts := ingest.NewConvertOptions()
	if root.AbortOnError != nil {
		opts = opts.WithAbortOnError(*root.AbortOnError)
	}

	level := rhglog.Off
	if root.LogLevel != nil {
		l, ok := logLevels[*root.LogLevel]
		if !ok {
			return ingest.ConvertOptions{}, fmt.Errorf("ingestconfig: %s: unknown log_level %q", path, *root.LogLevel)
		}
		level = l
	}
	enableLogging := root.EnableLogging != nil && *root.EnableLogging
	opts = opts.WithLogging(enableLogging, level)

	if root.EnableTiming != nil {
		opts = opts.WithTiming(*root.EnableTiming)
	}
	if root.MaxLoopIterations != nil {
		opts = opts.WithMaxLoopIterations(*root.MaxLoopIterations)
	}
	if root.ThreadCount != nil {
		opts = opts.WithThreadCount(*root.ThreadCount)
	}
	if root.SingleThread != nil {
		opts = opts.WithSingleThread(*root.SingleThread)
	}
	return opts, nil
}
