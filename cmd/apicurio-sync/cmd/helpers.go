package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bianoble/apicurio-sync/internal/cache"
	"github.com/bianoble/apicurio-sync/internal/config"
	"github.com/bianoble/apicurio-sync/internal/logging"
	"github.com/bianoble/apicurio-sync/internal/metrics"
	"github.com/bianoble/apicurio-sync/internal/output"
	"github.com/bianoble/apicurio-sync/internal/regctx"
	"github.com/bianoble/apicurio-sync/internal/registry"
)

// settings is the resolved view of global flags and their environment
// variables.
type settings struct {
	Workdir     string
	ConfigPath  string
	ContextFile string
	ContextName string
	RegistryURL string
	Output      output.Format
	NoCache     bool
	MetricsFile string
}

func loadSettings() (*settings, error) {
	workdir := v.GetString("cwd")
	if workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		workdir = wd
	}
	workdir, err := filepath.Abs(workdir)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	format, err := output.ParseFormat(v.GetString("output"))
	if err != nil {
		return nil, err
	}

	configPath := v.GetString("config-file")
	if configPath == "" {
		configPath = config.DefaultFileName
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(workdir, configPath)
	}

	contextFile := v.GetString("context-file")
	if contextFile == "" {
		contextFile = regctx.DefaultPath()
	}

	return &settings{
		Workdir:     workdir,
		ConfigPath:  configPath,
		ContextFile: contextFile,
		ContextName: v.GetString("context"),
		RegistryURL: v.GetString("registry-url"),
		Output:      format,
		NoCache:     v.GetBool("no-cache"),
		MetricsFile: v.GetString("metrics-file"),
	}, nil
}

// loadConfig reads and validates the config file.
func loadConfig(s *settings) (*config.Config, error) {
	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", s.ConfigPath, err)
	}
	return cfg, nil
}

// resolveContext picks the registry connection for this run. The config's
// registry field is the last fallback.
func resolveContext(s *settings, cfg *config.Config) (*regctx.Context, error) {
	sel := regctx.Selector{Name: s.ContextName, URL: s.RegistryURL}
	if cfg != nil {
		sel.FallbackURL = cfg.Registry
	}
	return regctx.Resolve(s.ContextFile, sel)
}

// newProvider builds a registry client for the resolved context.
func newProvider(s *settings, cfg *config.Config) (registry.Provider, *regctx.Context, error) {
	rc, err := resolveContext(s, cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := rc.NewClient(registry.WithUserAgent("apicurio-sync/" + version))
	if err != nil {
		return nil, nil, err
	}
	logging.Default().Debug().
		Str("context", rc.Name).
		Str("url", rc.URL).
		Str("auth", rc.Auth.Kind()).
		Msg("using registry")
	return client, rc, nil
}

// newCache opens the content cache, or returns nil with --no-cache.
func newCache(s *settings) (*cache.Cache, error) {
	if s.NoCache {
		return nil, nil
	}
	return cache.New(cache.DefaultDir())
}

// newRecorder returns a metrics recorder when a metrics file is requested.
// The nil recorder discards everything.
func newRecorder(s *settings) *metrics.Recorder {
	if s.MetricsFile == "" {
		return nil
	}
	return metrics.New()
}

// writeMetrics flushes rec to the metrics file. Failures are only logged.
func writeMetrics(s *settings, rec *metrics.Recorder) {
	if rec == nil {
		return
	}
	if err := rec.WriteTextfile(s.MetricsFile); err != nil {
		logging.Default().Warn().Err(err).Str("file", s.MetricsFile).Msg("writing metrics failed")
	}
}

func newPrinter(cmd *cobra.Command, s *settings) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), s.Output)
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
