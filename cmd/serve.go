package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scrollab/askdocs/internal/answer"
	"github.com/scrollab/askdocs/internal/config"
	"github.com/scrollab/askdocs/internal/retrieve"
	"github.com/scrollab/askdocs/internal/web"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [addr]",
	Short: "Start the answer API server",
	Long: `serve exposes POST /api/chat, which streams retrieval-augmented
answers over SSE, and GET /health. The address may be given positionally or
with --addr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := flagServeAddr
		if len(args) == 1 {
			addr = args[0]
		}
		return runServe(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "127.0.0.1:8080", "listen address (host:port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(addr string) error {
	if err := validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	logger := newLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b, err := setupBackend(ctx, logger, true)
	if err != nil {
		return err
	}
	defer b.Close()

	retriever, err := retrieve.New(b.embedder, b.store, b.cfg.TopK, b.cfg.Namespace,
		logger.With("component", "retrieve"))
	if err != nil {
		return fmt.Errorf("configuring retriever: %w", err)
	}

	generator := answer.NewGenkitGenerator(b.genkit, b.cfg.FullModelName(), b.cfg.Temperature,
		logger.With("component", "generate"))
	answerer := answer.New(retriever, generator, config.MaxHistoryTurns, logger.With("component", "answer"))

	server, err := web.NewServer(web.ServerConfig{
		Addr:          addr,
		Answerer:      answerer,
		Pinger:        b.store,
		Logger:        logger.With("component", "web"),
		RatePerSecond: b.cfg.RatePerSecond,
		RateBurst:     b.cfg.RateBurst,
		TrustProxy:    b.cfg.TrustProxy,
	})
	if err != nil {
		return fmt.Errorf("configuring server: %w", err)
	}

	return server.ListenAndServe(ctx)
}
