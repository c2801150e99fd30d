package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vfiala/photo-inspector/internal/config"
	"github.com/vfiala/photo-inspector/internal/embedder"
	"github.com/vfiala/photo-inspector/internal/session"
	"github.com/vfiala/photo-inspector/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Photo Inspector web server.
The web server provides a browser-based interface for scanning folders,
reviewing similarity clusters and exporting the photos you keep.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (defaults to WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (defaults to WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if port := flagInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := flagString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	provider := embedder.NewHTTPProvider(cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.Dim)
	defer provider.Close()

	embeddingCache := openCache(cfg)
	if embeddingCache != nil {
		fmt.Println("Embedding cache enabled (PostgreSQL)")
		defer embeddingCache.Close()
	}

	store := session.NewStore(embedder.NewAdapter(provider), embeddingCache)
	server := web.NewServer(cfg, store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		// Stop any run still embedding before the server goes away.
		if run, err := store.Run(); err == nil {
			run.Cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Photo Inspector Web UI on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Embedding model: %s (%d dimensions)\n", cfg.Embedding.Model, cfg.Embedding.Dim)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
