package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pose-match/internal/platform/tui"
	"github.com/vovakirdan/pose-match/internal/source"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout time.Duration
	flagSSHSource   string
	flagSSHSeed     int64
	flagSSHRecord   string
)

var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Serve the terminal game over SSH",
	Long: `Start an SSH server that serves the play screen. Each connection gets
its own game over a local keypoint source. Results are stored in the
shared database under the SSH user name.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.posematch/host_key

Examples:
  posematch ssh                          # Listen on :23235
  posematch ssh --listen :2222
  posematch ssh --host-key ./host_key

Players connect with:
  ssh localhost -p 23235`,
	Args: cobra.NoArgs,
	RunE: runSSH,
}

func init() {
	def := tui.DefaultSSHServerConfig()
	sshCmd.Flags().StringVar(&flagSSHAddr, "listen", def.Address, "SSH server address (host:port)")
	sshCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	sshCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", def.IdleTimeout, "Disconnect idle sessions after this long")
	sshCmd.Flags().StringVar(&flagSSHSource, "source", def.Session.Source, "Keypoint source for every session")
	sshCmd.Flags().Int64Var(&flagSSHSeed, "seed", 0, "RNG seed for the synthetic source (0 = random per session)")
	sshCmd.Flags().StringVar(&flagSSHRecord, "recording", "", "Keypoint recording YAML for the replay source")
}

func runSSH(_ *cobra.Command, _ []string) error {
	if !source.Exists(flagSSHSource) {
		return fmt.Errorf("unknown source %q, run 'posematch sources' to list them", flagSSHSource)
	}

	cfg, preset, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, "posematch-ssh")
	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: flagIdleTimeout,
		Session: tui.SessionConfig{
			Game:   cfg.Game(),
			Timing: cfg.SchedulerTiming(),
			Source: flagSSHSource,
			SourceOptions: source.Options{
				Seed:      flagSSHSeed,
				Recording: flagSSHRecord,
			},
		},
		Difficulty: string(preset),
	}, store, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Starting posematch SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
