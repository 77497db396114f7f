package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/driftsync/driftsync/internal/config"
	"github.com/driftsync/driftsync/internal/mirror"
	"github.com/driftsync/driftsync/internal/utils"
	"github.com/driftsync/driftsync/internal/version"
)

const logFileName = "driftsync.log"

var rootCmd = &cobra.Command{
	Use:   "driftsync SOURCE_DIR REPLICA_DIR",
	Short: "One-way directory mirror daemon",
	Long: "DriftSync periodically mirrors the contents of a source directory onto a " +
		"replica directory, copying, overwriting and deleting entries until the " +
		"replica matches the source. Quote paths that contain spaces.",
	Version: version.Detailed(),
	Args:    cobra.MaximumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.Config{
			Path:       viper.ConfigFileUsed(),
			SourceDir:  viper.GetString("source_dir"),
			ReplicaDir: viper.GetString("replica_dir"),
			Frequency:  viper.GetInt("frequency"),
			LogDir:     viper.GetString("log_dir"),
			Compare:    viper.GetString("compare"),
			Watch:      viper.GetBool("watch"),
		}
		if len(args) > 0 {
			cfg.SourceDir = args[0]
		}
		if len(args) > 1 {
			cfg.ReplicaDir = args[1]
		}
		cfg.Once, _ = cmd.Flags().GetBool("once")
		cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")

		if cfg.SourceDir == "" || cfg.ReplicaDir == "" {
			return errors.New("both SOURCE_DIR and REPLICA_DIR are required (as arguments or in the config file)")
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		// args are good, runtime failures are no longer a usage problem
		cmd.SilenceUsage = true

		closeLog := setupLogging(cfg.LogDir)
		defer closeLog()
		showHeader()

		m, err := mirror.NewManager(cfg)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		if err := m.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("mirror", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().IntP("frequency", "f", config.DefaultFrequency, "Seconds between synchronization passes")
	rootCmd.Flags().StringP("log_dir", "l", "", "Directory for the sync log file (defaults to the working directory)")
	rootCmd.Flags().String("compare", mirror.CompareSmart, "File comparison strategy: smart, size or hash")
	rootCmd.Flags().Bool("watch", false, "Also trigger passes on source filesystem events")
	rootCmd.Flags().Bool("once", false, "Run a single pass and exit")
	rootCmd.Flags().Bool("dry-run", false, "Log the plan without touching the replica")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (JSON)")
}

func main() {
	// console-only until the log directory is known
	slog.SetDefault(slog.New(consoleHandler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)

		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("config read %q: %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("frequency", cmd.Flags().Lookup("frequency"))
	viper.BindPFlag("log_dir", cmd.Flags().Lookup("log_dir"))
	viper.BindPFlag("compare", cmd.Flags().Lookup("compare"))
	viper.BindPFlag("watch", cmd.Flags().Lookup("watch"))

	viper.SetEnvPrefix("DRIFTSYNC")
	viper.AutomaticEnv()

	return nil
}

func consoleHandler() slog.Handler {
	return tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
}

// setupLogging fans the default logger out to the console and an
// append-only log file under logDir. A log file that cannot be opened
// leaves console logging in place rather than failing the run.
func setupLogging(logDir string) func() {
	logPath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("sync log file unavailable, logging to console only", "path", logPath, "error", err)
		return func() {}
	}

	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(consoleHandler(), fileHandler)))
	slog.Info("sync log", "path", logPath)

	return func() { file.Close() }
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).
		Fprintln(os.Stdout, version.AppName+" "+version.Short())
}
