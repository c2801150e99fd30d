package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vfiala/photo-inspector/internal/cache"
	"github.com/vfiala/photo-inspector/internal/config"
	"github.com/vfiala/photo-inspector/internal/embedder"
	"github.com/vfiala/photo-inspector/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run [folder]",
	Short: "Scan a folder and cluster similar photos",
	Long: `Scan a folder, embed every image and group visually similar photos.
Clusters are printed as a table (or JSON with --json). With --export, the
default selection - the first photo of each cluster - is copied to the
given folder.

Already embedded files are skipped when DATABASE_URL points to a
PostgreSQL instance with the pgvector extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Float64("threshold", 0, "Similarity cutoff in (0,1] (defaults to SIMILARITY_THRESHOLD)")
	runCmd.Flags().Int("workers", 0, "Parallel embedding workers (defaults to WORKER_COUNT)")
	runCmd.Flags().Bool("approximate", false, "Use the approximate nearest-neighbor index")
	runCmd.Flags().Bool("singletons", false, "Include clusters with a single photo in the output")
	runCmd.Flags().Bool("json", false, "Print clusters as JSON")
	runCmd.Flags().String("export", "", "Copy the kept photos of each cluster to this folder")
	runCmd.Flags().StringSlice("extensions", nil, "Image extensions to scan (defaults to SCAN_EXTENSIONS)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	threshold := flagFloat64(cmd, "threshold")
	if threshold == 0 {
		threshold = cfg.Cluster.Threshold
	}
	workers := flagInt(cmd, "workers")
	if workers == 0 {
		workers = cfg.Embedding.Workers
	}
	extensions := flagStringSlice(cmd, "extensions")
	if len(extensions) == 0 {
		extensions = cfg.Scan.Extensions
	}
	approximate := flagBool(cmd, "approximate") || cfg.Cluster.Approximate
	asJSON := flagBool(cmd, "json")

	provider := embedder.NewHTTPProvider(cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.Dim)
	defer provider.Close()

	embeddingCache := openCache(cfg)
	if embeddingCache != nil {
		defer embeddingCache.Close()
	}

	store := session.NewStore(embedder.NewAdapter(provider), embeddingCache)
	run, err := store.StartRun(session.Options{
		Roots:       args,
		Extensions:  extensions,
		Threshold:   threshold,
		Workers:     workers,
		Approximate: approximate,
	})
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nStopping, clustering what was embedded so far...")
		run.Cancel()
	}()

	followProgress(run, asJSON)
	<-run.Done()

	if run.Status() == session.StatusFailed {
		return fmt.Errorf("run failed: %s", run.Err())
	}

	clusters := run.Clusters(flagBool(cmd, "singletons"))
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(clusters); err != nil {
			return fmt.Errorf("encoding clusters: %w", err)
		}
	} else {
		printClusters(run, clusters)
	}

	if dest := flagString(cmd, "export"); dest != "" {
		report, err := run.Export(dest)
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		fmt.Printf("\nExported %d photos to %s\n", len(report.Succeeded), dest)
		for _, f := range report.Failed {
			fmt.Fprintf(os.Stderr, "  failed: %s: %s\n", f.Path, f.Reason)
		}
	}

	return nil
}

// openCache connects the PostgreSQL embedding cache when configured.
// Cache problems degrade to re-embedding, they never stop the run.
func openCache(cfg *config.Config) cache.Cache {
	if cfg.Database.URL == "" {
		return nil
	}
	c, err := cache.OpenPostgres(context.Background(), cfg.Database.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: embedding cache unavailable: %v\n", err)
		return nil
	}
	return c
}

// followProgress renders a progress bar from run events until the run
// reaches a terminal state. Suppressed in JSON mode to keep stdout clean.
func followProgress(run *session.Run, quiet bool) {
	events := run.AddListener()
	defer run.RemoveListener(events)

	var bar *progressbar.ProgressBar
	finish := func() {
		if bar != nil {
			_ = bar.Finish()
			fmt.Println()
		}
	}

	for {
		var event session.Event
		select {
		case <-run.Done():
			finish()
			return
		case event = <-events:
		}

		switch event.Type {
		case "scanned":
			if quiet {
				continue
			}
			total := run.Progress().Total
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Embedding photos"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("photos"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		case "progress":
			if bar != nil {
				_ = bar.Set(run.Progress().Processed)
			}
		case "completed", "cancelled", "failed":
			finish()
			return
		}
	}
}

// printClusters renders the partition as a table plus the error report.
func printClusters(run *session.Run, clusters []session.ClusterView) {
	if len(clusters) == 0 {
		fmt.Println("No clusters found.")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CLUSTER\tPHOTOS\tKEEP\tREPRESENTATIVE")
		for _, c := range clusters {
			kept := 0
			for _, m := range c.Members {
				if m.Keep {
					kept++
				}
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", c.ID, len(c.Members), kept, c.Representative)
		}
		w.Flush()
	}

	if errs := run.Errors(); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d files could not be processed:\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Path, e.Reason)
		}
	}
}
