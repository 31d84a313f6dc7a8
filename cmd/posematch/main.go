// posematch is a pose-matching game: hold each reference pose until the
// camera score passes the threshold, four levels against the clock.
//
// Usage:
//
//	posematch play           - Play in the terminal with a local keypoint source
//	posematch serve          - Serve the game to browsers over HTTP/WebSocket
//	posematch ssh            - Serve the terminal game over SSH
//	posematch scores         - Show best times and recent runs
//	posematch sources        - List keypoint sources
//	posematch levels         - Show the configured levels
//
// Global flags:
//
//	--config <path>      - Game config YAML
//	--difficulty <name>  - easy, normal or hard
//	--db <path>          - Results database (default: ~/.posematch/runs.db)
//	--verbose            - Debug logging
//
// Every flag can also be set from the environment as POSEMATCH_<FLAG>,
// e.g. POSEMATCH_DB or POSEMATCH_PUBLIC_URL.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vovakirdan/pose-match/internal/config"
	"github.com/vovakirdan/pose-match/internal/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	flagConfig     string
	flagDifficulty string
	flagDBPath     string
	flagVerbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "posematch",
	Short: "Pose Match - hold the pose before the clock runs out",
	Long: `Pose Match is a four-level pose-matching game. Each level shows a
reference pose; hold it until your score reaches the pass threshold
within sixty seconds.

Available commands:
  play     - Play in the terminal with a simulated or recorded player
  serve    - Serve the game to browsers (the browser runs the pose model)
  ssh      - Serve the terminal game over SSH
  scores   - Show best times and recent runs
  sources  - List keypoint sources
  levels   - Show the configured levels

Examples:
  posematch play
  posematch play --source replay --recording ./warrior.yaml
  posematch serve --port 8080
  posematch ssh --listen :2222
  posematch scores --recent`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: bindEnv,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	pf.StringVar(&flagConfig, "config", "", "Path to game config YAML (env: POSEMATCH_CONFIG)")
	pf.StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard (env: POSEMATCH_DIFFICULTY)")
	pf.StringVar(&flagDBPath, "db", "~/.posematch/runs.db", "Path to results database (env: POSEMATCH_DB)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging (env: POSEMATCH_VERBOSE)")

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetVersionTemplate("posematch v{{.Version}}\n")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(levelsCmd)
}

// bindEnv fills every flag the user did not set from POSEMATCH_* variables.
func bindEnv(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	v.SetEnvPrefix("POSEMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var err error
	fs := cmd.Flags()
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if setErr := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); setErr != nil && err == nil {
				err = fmt.Errorf("invalid value for --%s from environment: %w", f.Name, setErr)
			}
		}
	})
	return err
}

// loadConfig loads the game config and applies the difficulty preset.
func loadConfig() (config.GameConfig, config.DifficultyPreset, error) {
	preset, err := config.ParseDifficulty(flagDifficulty)
	if err != nil {
		return config.GameConfig{}, "", err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.GameConfig{}, "", err
	}
	config.ApplyPreset(&cfg, preset)
	return cfg, preset, nil
}

// newLogger creates a charm logger writing to w.
func newLogger(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// openStore opens the results database. Failing to open it is not fatal
// for playing: a warning is logged and runs are not saved.
func openStore(logger *log.Logger) *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open results database, runs will not be saved", "path", flagDBPath, "error", err)
		return nil
	}
	return store
}
