package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrollab/askdocs/internal/chatclient"
	"github.com/scrollab/askdocs/internal/config"
	"github.com/scrollab/askdocs/internal/tui"
)

var flagChatServer string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running askdocs server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVar(&flagChatServer, "server", "", "server base URL (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	serverURL := cfg.ServerURL
	if flagChatServer != "" {
		serverURL = flagChatServer
	}

	client := chatclient.NewClient(serverURL, nil)
	rewriter := chatclient.SourceRewriter{
		PathPrefix: cfg.DocsPathPrefix,
		BaseURL:    cfg.DocsBaseURL,
		Marker:     cfg.CorpusMarker,
		DocsURL:    cfg.CorpusDocsURL,
	}

	// TUI owns the terminal; logs would corrupt the display.
	return tui.Run(client, rewriter, nil)
}
