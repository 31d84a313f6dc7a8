package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pose-match/internal/platform/web"
)

var (
	flagBind      string
	flagPort      int
	flagPrefix    string
	flagPublicURL string
	flagTLSCert   string
	flagTLSKey    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game to browsers",
	Long: `Start an HTTP server for browser play. The browser captures the camera,
runs the pose model and streams keypoints over a WebSocket at /ws; the
server runs the game for each connection and streams state back.

Endpoints:
  /         - Landing page
  /ws       - Game WebSocket (?player=<name> is stored with results)
  /qr       - PNG QR code of the play URL
  /healthz  - Health check
  /version  - Version

Examples:
  posematch serve
  posematch serve --port 9000 --prefix /posematch
  posematch serve --public-url https://pose.example.com/`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	def := web.DefaultConfig()
	serveCmd.Flags().StringVarP(&flagBind, "bind", "b", def.Bind, "Address to bind to (env: POSEMATCH_BIND)")
	serveCmd.Flags().IntVarP(&flagPort, "port", "p", def.Port, "Port to listen on (env: POSEMATCH_PORT)")
	serveCmd.Flags().StringVar(&flagPrefix, "prefix", "", "Path to prepend to all URLs, for use behind a reverse proxy")
	serveCmd.Flags().StringVar(&flagPublicURL, "public-url", "", "URL encoded in the QR code (default: derived from the request)")
	serveCmd.Flags().StringVar(&flagTLSCert, "tls-cert", "", "Path to TLS certificate")
	serveCmd.Flags().StringVar(&flagTLSKey, "tls-key", "", "Path to TLS key")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if (flagTLSCert == "") != (flagTLSKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if flagPort < 1 || flagPort > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", flagPort)
	}

	cfg, preset, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, "posematch-web")
	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(web.Config{
		Bind:       flagBind,
		Port:       flagPort,
		Prefix:     flagPrefix,
		PublicURL:  flagPublicURL,
		TLSCert:    flagTLSCert,
		TLSKey:     flagTLSKey,
		Version:    version,
		Game:       cfg.Game(),
		Timing:     cfg.SchedulerTiming(),
		Difficulty: string(preset),
	}, store, logger)

	return srv.ListenAndServe(ctx)
}
