package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/kumbirai/google-drive-backup/internal/logging"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
	"github.com/kumbirai/google-drive-backup/pkg/version"
	"github.com/spf13/cobra"
)

var (
	globalFlags types.GlobalFlags
	logger      logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "drive-backup",
	Short: "Mirror local paths into Google Drive",
	Long: `drive-backup mirrors configured local files and directories into
Google Drive folders. Each run replaces the destination contents with a
fresh copy of the source, so the remote always reflects the local state.

Mappings are declared in a YAML config file under backup_paths.`,
	Version:      version.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logConfig := logging.LogConfig{
			Level:           logging.INFO,
			OutputFile:      globalFlags.LogFile,
			EnableConsole:   !globalFlags.Quiet,
			EnableColor:     true,
			EnableTimestamp: true,
			RedactSensitive: true,
		}
		if globalFlags.Verbose {
			logConfig.Level = logging.DEBUG
		}

		var err error
		logger, err = logging.NewLogger(logConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
	RunE: runBackup,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Config, "config", "c", "config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.NoBrowser, "no-browser", false, "Use manual paste-code authentication")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and maps failures to exit codes. Only
// configuration and authentication failures are fatal; per-mapping
// backup errors are reported in the summary and exit zero.
func Execute() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Close()
	}
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return utils.GetExitCode(appErr.CLIError.Code)
	}
	return utils.ExitUnknown
}

// GetLogger returns the global logger
func GetLogger() logging.Logger {
	if logger == nil {
		return logging.NewNoOpLogger()
	}
	return logger
}
