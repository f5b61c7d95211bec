package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"lochat/internal/ollama"
	"lochat/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Long:  "Serve the session and chat endpoints over HTTP until interrupted.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&flagServeAddr, "addr", "a", server.DefaultAddr, "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	// The server always logs; --verbose only changes the level.
	zcfg := zap.NewProductionConfig()
	if flagVerbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	log, err := zcfg.Build()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Timeout())
	if err := backend.Ping(ctx); err != nil {
		log.Warn("ollama endpoint unreachable, chat requests will fail until it comes up",
			zap.String("url", cfg.Ollama.URL),
			zap.Error(err),
		)
	}

	svc := server.New(server.Config{Addr: flagServeAddr}, st, newChatService(cfg, st, log), log)

	fmt.Printf("Serving on http://%s (model %s)\n", flagServeAddr, cfg.Ollama.Model)
	log.Info("server starting",
		zap.String("addr", flagServeAddr),
		zap.String("model", cfg.Ollama.Model),
	)

	return svc.Run(ctx)
}
