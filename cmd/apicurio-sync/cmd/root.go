package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bianoble/apicurio-sync/internal/config"
	"github.com/bianoble/apicurio-sync/internal/logging"
	"github.com/bianoble/apicurio-sync/internal/regctx"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const envPrefix = "APICURIO_SYNC"

// v holds settings from flags, the environment and .env files.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "apicurio-sync",
	Short: "Synchronize schema files with an Apicurio registry",
	Long: `apicurio-sync keeps local schema files and an Apicurio schema registry in
step. Artifacts listed under 'pull' are resolved to exact versions, pinned in a
lockfile next to the configuration and written to their local paths. Files
listed under 'push' are uploaded as artifacts.

Running without a subcommand is the same as 'apicurio-sync sync'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "apicurio-sync %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config-file", "f", config.DefaultFileName, "path to the config file, relative to the working directory")
	flags.String("context-file", regctx.DefaultPath(), "path to the context file")
	flags.String("context", "", "context to use instead of the current one")
	flags.String("registry-url", "", "registry URL, overriding the context")
	flags.String("cwd", "", "working directory (default: current directory)")
	flags.BoolP("debug", "d", false, "enable debug logging")
	flags.StringP("output", "o", "", "output format: table, json or yaml (default: table on a terminal, json otherwise)")
	flags.Bool("no-cache", false, "do not read or write the local content cache")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile after the run")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", f.Name, err))
		}
	})
	for key, env := range map[string]string{
		"cwd":          envPrefix + "_WORKDIR",
		"context":      regctx.EnvContextName,
		"registry-url": regctx.EnvRegistryURL,
	} {
		if err := v.BindEnv(key, env); err != nil {
			panic(fmt.Sprintf("binding env %s: %v", env, err))
		}
	}

	rootCmd.RunE = runSync
	rootCmd.AddCommand(versionCmd)
}

// setup loads .env files and configures logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	loadEnvFiles()

	cfg := logging.DefaultConfig()
	cfg.Output = cmd.ErrOrStderr()
	if v.GetBool("debug") {
		cfg.Level = "debug"
	}
	logger := logging.NewLoggerFromConfig(cfg)
	logging.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, &logger))
	return nil
}

// loadEnvFiles loads .env.local and .env from the current directory. A
// variable keeps the first value it gets: the environment, then .env.local.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err == nil {
			logging.Default().Debug().Str("file", name).Msg("loaded environment file")
		}
	}
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Default().Error().Msg(err.Error())
		return err
	}
	return nil
}
