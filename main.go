package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"

	"jukebox/internal/bootstrap"
	"jukebox/internal/config"
	"jukebox/internal/logging"
	"jukebox/internal/memory"
	"jukebox/internal/metrics"
	"jukebox/internal/startup"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn("Failed to load .env: %v", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		logging.Error("%v", err)
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	root := &cobra.Command{
		Use:   "jukebox",
		Short: "Music server with MPD and HTTP frontends",
		Long: `jukebox aggregates tracks from local folders and streaming services into
one library and plays them through a local backend. It is controlled over
the MPD protocol and an HTTP/websocket API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, v)
		},
	}

	root.PersistentFlags().StringP(config.KeyConfig, "c", config.DefaultPath, "Path to the TOML configuration file")
	root.PersistentFlags().String(config.KeyLogLevel, "", "Log level override (debug, info, warn, error)")
	for _, name := range []string{config.KeyConfig, config.KeyLogLevel} {
		if err := v.BindPFlag(name, root.PersistentFlags().Lookup(name)); err != nil {
			startup.LogFatal("Failed to bind %s flag: %v", name, err)
		}
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newCheckCmd(v))
	return root
}

func serve(cmd *cobra.Command, v *viper.Viper) error {
	opts := config.OptionsFrom(v)
	memory.ApplyLimit(opts.MemoryLimit, opts.MemoryRatio)

	cfg, err := loadConfig(opts)
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	startup.LogStart(opts.ConfigPath, cfg)
	metrics.InitializeMetrics(cfg.EnabledProviders(), bootstrap.SubsystemNames(cfg))

	return bootstrap.Run(cmd.Context(), cfg, bootstrap.Options{
		Interrupts: []os.Signal{os.Interrupt, syscall.SIGTERM},
	})
}

// loadConfig reads the config file and applies the log level, preferring
// the flag or environment over the file.
func loadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if level != "" {
		logging.SetLevel(logging.ParseLevel(level))
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			_, err = fmt.Fprintf(out, "jukebox %s (commit %s, built %s, %s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion)
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// newCheckCmd validates the configuration without starting anything.
func newCheckCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := config.OptionsFrom(v)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			providers := cfg.EnabledProviders()
			if len(providers) == 0 {
				providers = []string{"none"}
			}
			frontends := cfg.EnabledFrontends()
			if len(frontends) == 0 {
				frontends = []string{"none"}
			}
			_, err = fmt.Fprintf(out, "%s: ok\n  providers: %s\n  frontends: %s\n  backend:   %s\n",
				opts.ConfigPath, strings.Join(providers, ", "), strings.Join(frontends, ", "), cfg.Backend)
			return err
		},
	}
}
