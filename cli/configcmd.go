package main

import (
	"encoding/json"
	"fmt"
	"os"

	"ythelper/config"
)

func cmdConfig(args []string) {
	if len(args) == 0 {
		printConfigUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "set-api-key":
		cmdConfigSetAPIKey(args[1:])
	case "clear-api-key":
		cmdConfigClearAPIKey()
	case "show":
		cmdConfigShow()
	case "help", "-h", "--help":
		printConfigUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown config subcommand %q\n\n", args[0])
		printConfigUsage()
		os.Exit(1)
	}
}

func printConfigUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  ythelper config set-api-key <key>   Store the API key (mode 0600)
  ythelper config clear-api-key       Delete the stored API key
  ythelper config show                Print the effective configuration
`)
}

func cmdConfigSetAPIKey(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing key\n")
		printConfigUsage()
		os.Exit(1)
	}
	if err := config.SaveAPIKey(args[0]); err != nil {
		fatal("saving api key: %v", err)
	}
	fmt.Fprintln(os.Stderr, "API key saved.")
}

func cmdConfigClearAPIKey() {
	existed, err := config.RemoveAPIKey()
	if err != nil {
		fatal("clearing api key: %v", err)
	}
	if existed {
		fmt.Fprintln(os.Stderr, "API key removed.")
	} else {
		fmt.Fprintln(os.Stderr, "No stored API key.")
	}
}

func cmdConfigShow() {
	cfg := loadConfig()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		fatal("encoding config: %v", err)
	}
	fmt.Println(string(data))

	key, err := config.LoadAPIKey()
	if err != nil {
		fatal("reading api key: %v", err)
	}
	switch {
	case os.Getenv(config.EnvAPIKey) != "":
		fmt.Fprintf(os.Stderr, "API key: set via %s\n", config.EnvAPIKey)
	case key != "":
		fmt.Fprintf(os.Stderr, "API key: stored (%s)\n", maskKey(key))
	default:
		fmt.Fprintln(os.Stderr, "API key: not configured")
	}
}

// maskKey shows just enough of the key to identify it.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
