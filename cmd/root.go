package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lattice/internal/config"
)

var version = "0.3.0"

var (
	bad    = color.New(color.FgRed)
	good   = color.New(color.FgGreen)
	subtle = color.New(color.Faint)
)

var rootCmd = &cobra.Command{
	Use:   "lattice [board.json]",
	Short: "lattice — node diagram designer for the terminal",
	Long: "lattice edits node-and-connection diagrams: containers that stretch\n" +
		"around their children, sticky notes, satellites, and live snapshots\n" +
		"for viewers.",
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return runEdit(path)
	},
}

func init() {
	rootCmd.SetVersionTemplate("lattice {{ .Version }}\n")
	rootCmd.AddCommand(
		exportCmd(),
		serveCmd(),
		configCmd(),
	)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger from config. While the TUI owns the
// terminal, stderr logging would corrupt the screen, so the default sink for
// interactive sessions is the configured file or nothing.
func newLogger(cfg *config.Config, interactive bool) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if cfg.Log.File != "" {
		if f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = f
		}
	} else if interactive {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create the config file with defaults and print its path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.EnsureExists(); err != nil {
				bad.Fprintf(os.Stderr, "lattice: %v\n", err)
				return err
			}
			good.Println(config.ConfigDir())
			return nil
		},
	}
}
