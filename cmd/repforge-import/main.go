package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/repforge/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "RepForge server URL (e.g. https://repforge.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("REPFORGE_API_KEY"), "API key for write endpoints (defaults to $REPFORGE_API_KEY)")
	exportPath := flag.String("path", "", "path to a directory of Alpha Progression CSV exports")
	dryRun := flag.Bool("dry-run", false, "parse files locally but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repforge-import", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repforge-import -server <URL> -path <export dir> [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportPath)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".repforge-import")

	state, err := upload.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	}

	if *dryRun {
		log.Info("DRY RUN mode — files will be parsed but not sent")
	}

	uploader := upload.New(client, state, *exportPath, *dryRun, log)
	stats, err := uploader.Run()
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("import complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("  Files total:        %d\n", stats.FilesTotal)
	fmt.Printf("  Files sent:         %d\n", stats.FilesSent)
	fmt.Printf("  Files skipped:      %d (already imported)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:      %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions parsed:    %d\n", stats.SessionsParsed)
	fmt.Printf("  Sessions imported:  %d\n", stats.SessionsImported)
	fmt.Printf("  Sessions skipped:   %d (duplicates)\n", stats.SessionsSkipped)
	fmt.Printf("  Sets imported:      %d\n", stats.SetsImported)
	fmt.Printf("  PRs detected:       %d\n", stats.PRsDetected)
	fmt.Printf("  XP earned:          %.1f\n", stats.XPEarned)
	fmt.Println()
}
