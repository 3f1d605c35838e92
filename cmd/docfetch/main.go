package main

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docfetch/internal/config"
	"git.home.luguber.info/inful/docfetch/internal/observability"
	"github.com/alecthomas/kong"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Get struct {
		URL       string `arg:"" help:"Resource URL to fetch"`
		Output    string `short:"o" help:"Write the body to a file instead of stdout"`
		UserAgent string `help:"Override the configured User-Agent header"`
	} `cmd:"" help:"Fetch a single resource and print its body"`

	Prefetch struct {
		Manifest string `short:"m" help:"Manifest file path (overrides configuration)"`
		Format   string `short:"f" help:"Issue output format (text, json)" default:"text"`
	} `cmd:"" help:"Fetch every manifest resource once and report failures"`

	Daemon struct {
	} `cmd:"" help:"Keep the fetch cache warm continuously"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg := loadConfig()
	level := cfg.Logging.SlogLevel()
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	observability.Setup(level, cfg.Logging.Format)

	switch ctx.Command() {
	case "get <url>":
		os.Exit(runGet(cfg, CLI.Get.URL, CLI.Get.UserAgent, CLI.Get.Output))
	case "prefetch":
		os.Exit(runPrefetch(cfg, CLI.Prefetch.Manifest, CLI.Prefetch.Format))
	case "daemon":
		if err := runDaemon(cfg); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration file created: %s\n", CLI.Config)
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

// loadConfig reads the configured file, falling back to built-in
// defaults when it does not exist so one-shot commands work without
// any setup.
func loadConfig() *config.Config {
	if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
		return config.Default()
	}
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
