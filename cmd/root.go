package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photo-inspector",
	Short: "Find and clean up near-duplicate photos",
	Long: `Photo Inspector scans a folder of photos, computes an embedding vector
for every image and groups visually similar shots into clusters. You then
pick the photos worth keeping from each cluster and export them into a
clean folder.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
