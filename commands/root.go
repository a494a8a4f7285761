package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-project-history/internal/application/rewind"
	"github.com/penwyp/go-project-history/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug   bool
	logJSON bool

	// Configuration sources
	configPath  string
	historyFile string
	projectDir  string

	// Display related
	outputFormat string
	timezone     string
	timeFormat   string

	// Remote services
	shareURL   string
	surfaceURL string

	rootCmd = &cobra.Command{
		Use:   "go-project-history [flags]",
		Short: "Browse and restore earlier versions of a project",
		Long: `go-project-history reconstructs past states of a project from its history log.

The history log records backward diffs for every save, full snapshots and published shares.
Any recorded instant can be previewed, restored over the project or saved as a copy.

Examples:
  go-project-history --history .history.json                 # List restore points
  go-project-history show --at 10:00 --history h.json         # Describe the project at 10:00
  go-project-history restore --at 1704189600000 -l h.json     # Restore a save
  go-project-history copy --at _abc123 --out ../copy -l h.json # Save a shared version as a copy
  go-project-history serve --surface ws://localhost:3232/preview -l h.json`,
		PersistentPreRunE: initLogging,
		RunE:              runTimeline,
		SilenceUsage:      true,
	}
)

const (
	defaultLogFile = "~/.go-project-history/logs/app.log"
)

func init() {
	// Configuration sources
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&historyFile, "history", "l", "",
		"History log (.json, .json.zst, .db, .sqlite)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", ".",
		"Project directory holding the live files")

	// Output configuration
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local",
		"Timezone setting (e.g., Asia/Shanghai, UTC)")
	rootCmd.PersistentFlags().StringVar(&timeFormat, "time-format", "24h",
		"Time format (12h or 24h)")

	// Remote services
	rootCmd.PersistentFlags().StringVar(&shareURL, "share-url", "",
		"Share service base URL")
	rootCmd.PersistentFlags().StringVar(&surfaceURL, "surface", "",
		"Preview surface WebSocket URL")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Write logs as JSON")
}

func initLogging(cmd *cobra.Command, args []string) error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	format := util.FormatText
	if logJSON {
		format = util.FormatJSON
	}

	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		// Fall back to stderr only when the home directory is not writable.
		logFile = ""
	}
	if err := util.InitLogger(logLevel, logFile, debug || logFile == "", format); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// loadConfig merges defaults, the config file, the environment and explicitly set flags
func loadConfig(cmd *cobra.Command) (*rewind.RewindConfig, error) {
	path := configPath
	if path != "" {
		path = expandPath(path)
	}
	config, err := rewind.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("history") {
		config.HistoryFile = historyFile
	}
	if flags.Changed("project") || config.ProjectDir == "" {
		config.ProjectDir = projectDir
	}
	if flags.Changed("timezone") || config.Timezone == "" {
		config.Timezone = timezone
	}
	if flags.Changed("time-format") || config.TimeFormat == "" {
		config.TimeFormat = timeFormat
	}
	if flags.Changed("share-url") {
		config.ShareBaseURL = shareURL
	}
	if flags.Changed("surface") {
		config.SurfaceURL = surfaceURL
	}

	if config.HistoryFile != "" {
		config.HistoryFile = expandPath(config.HistoryFile)
	}
	config.ProjectDir = expandPath(config.ProjectDir)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
