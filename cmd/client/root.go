package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"notes-api/pkg/client"

	"github.com/spf13/cobra"
)

const defaultAddr = "http://localhost:5001"

var (
	addr      string
	apiPrefix string
	apiKey    string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "Command line client for notes-api",
	Long: `notes talks to a running notes-api server over its JSON HTTP API.
The server address comes from --addr or NOTES_API_ADDR.`,
	SilenceUsage: true,
}

// Execute запускает корневую команду
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	def := os.Getenv("NOTES_API_ADDR")
	if def == "" {
		def = defaultAddr
	}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", def, "Server base URL (env NOTES_API_ADDR)")
	rootCmd.PersistentFlags().StringVar(&apiPrefix, "prefix", "/api/notes", "API path prefix")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("NOTES_API_KEY"), "Value for X-Api-Key (env NOTES_API_KEY)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
}

func newClient() *client.Client {
	return client.New(addr, client.WithAPIPrefix(apiPrefix), client.WithAPIKey(apiKey))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("Error encoding output", err)
	}
}
