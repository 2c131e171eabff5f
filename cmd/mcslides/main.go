// Command mcslides validates and normalizes the slide, widget and media
// config of a pinball machine and plays events against an in-memory display.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/config"
	"github.com/ivlev/mcslides/internal/logging"
	"github.com/ivlev/mcslides/internal/machine"
	"github.com/ivlev/mcslides/internal/video"
)

var (
	cfgFile     string
	machinePath string
	verbose     bool
	checkAssets bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mcslides",
	Short: "Validate and normalize pinball media controller slide config",
	Long: `mcslides reads a machine folder (config/ plus modes/<mode>/config/),
validates the displays, slides, widgets, animations, videos, sound_system
and slide_player sections and prints them in normalized form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("machine") {
			cfg.MachinePath = machinePath
		}
		if cmd.Flags().Changed("check-assets") {
			cfg.CheckAssets = checkAssets
		}
		if verbose {
			cfg.LogLevel = "debug"
		}

		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "mcslides settings file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&machinePath, "machine", "m", ".", "machine folder")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&checkAssets, "check-assets", false, "check that image files exist and decode")

	rootCmd.AddCommand(validateCmd, normalizeCmd, playCmd, schemaCmd, watchCmd)
}

func machineOptions() machine.Options {
	return machine.Options{
		Path:        cfg.MachinePath,
		ConfigFiles: cfg.ConfigFiles,
		Modes:       cfg.Modes,
		Workers:     cfg.Workers,
		CheckAssets: cfg.CheckAssets,
		Prober:      video.FFprobe{Path: cfg.FFprobePath},
		Logger:      logger,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}
}
