package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ythelper/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "enrich":
		cmdEnrich(args)
	case "enrich-video":
		cmdEnrichVideo(args)
	case "export":
		cmdExport(args)
	case "render":
		cmdRender(args)
	case "compare":
		cmdCompare(args)
	case "cache":
		cmdCache(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ythelper - YouTube playlist metadata enricher

Usage:
  ythelper enrich [flags] <playlist.csv>     Enrich a Takeout playlist CSV
  ythelper enrich-video [flags] <video-id>   Enrich a single video
  ythelper export [flags] <takeout-dir>      Enrich a whole Takeout export folder
  ythelper render [flags] <enriched.json>    Render an enriched result to HTML
  ythelper compare <playlist.csv> <enriched.json>  Verify a result against its playlist
  ythelper cache <info|purge|inspect> ...    Manage the metadata cache
  ythelper config <subcommand> ...           Manage configuration and API key
  ythelper help                              Show this help message

Examples:
  ythelper enrich "Watch later-videos.csv" -o enriched.json
  ythelper enrich playlist.csv --sqlite out.sqlite3 -v
  ythelper enrich-video dQw4w9WgXcQ
  ythelper export ~/Takeout/YouTube/playlists -o all.json --html all.html
  ythelper render enriched.json --title "Watch later"
  ythelper compare "Watch later-videos.csv" enriched.json
  ythelper cache info
  ythelper cache inspect video dQw4w9WgXcQ
  ythelper config set-api-key AIza...

For help on a specific command: ythelper <command> -h
`)
}

// fatal prints an error and exits. Kept at the command layer so library
// packages stay free of os.Exit.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads the merged configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatal("loading config: %v", err)
	}
	return cfg
}

// resolveAPIKey resolves the API key or exits with a hint.
func resolveAPIKey(flagValue string) string {
	key, err := config.APIKey(flagValue)
	if err != nil {
		fatal("resolving api key: %v", err)
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "Error: no API key configured\n")
		fmt.Fprintf(os.Stderr, "Set one with: ythelper config set-api-key <key>\n")
		fmt.Fprintf(os.Stderr, "Or export %s, or pass --api-key\n", config.EnvAPIKey)
		os.Exit(1)
	}
	return key
}

func writeJSONStdout(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encoding output: %v", err)
	}
	fmt.Println(string(data))
}

// runCtx builds the run context bounded by the configured request timeout.
func runCtx(cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.RequestTimeout)
}
