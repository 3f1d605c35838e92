package main

import (
	"context"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docfetch/internal/config"
	"git.home.luguber.info/inful/docfetch/internal/fetch"
	"git.home.luguber.info/inful/docfetch/internal/issue"
	"git.home.luguber.info/inful/docfetch/internal/logfields"
)

// runGet fetches one resource. Exit codes: 0 success, 1 classified
// fetch failure, 2 hard failure (cancellation, body read breakage).
func runGet(cfg *config.Config, url, userAgent, output string) int {
	if userAgent == "" {
		userAgent = cfg.Fetch.UserAgent
	}

	client := fetch.NewClient(cfg.Fetch.HTTPClient())
	result, err := client.Fetch(context.Background(), url, userAgent)
	if err != nil {
		slog.Error("Fetch failed", logfields.URL(url), logfields.Error(err))
		return 2
	}

	if result.Err != nil {
		fi := result.Err.ToIssue(issue.SeverityError, "")
		if ferr := issue.NewTextFormatter().Format(os.Stderr, []issue.Issue{fi}); ferr != nil {
			slog.Error("Failed to format issue", logfields.Error(ferr))
		}
		return 1
	}

	body := result.Response.Body
	if output != "" {
		if err := os.WriteFile(output, body, 0644); err != nil {
			slog.Error("Failed to write output file", "path", output, logfields.Error(err))
			return 2
		}
		slog.Info("Resource written",
			logfields.URL(url),
			logfields.Status(int(result.Response.Status)),
			logfields.Bytes(int64(len(body))),
			slog.String("path", output))
		return 0
	}

	if _, err := os.Stdout.Write(body); err != nil {
		slog.Error("Failed to write body to stdout", logfields.Error(err))
		return 2
	}
	return 0
}
