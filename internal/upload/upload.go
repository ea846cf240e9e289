// Package upload implements the client side of the import pipeline: it
// walks a directory of Alpha Progression CSV exports, skips files a
// local SQLite state database has already seen, and POSTs the rest to
// the server's ingest endpoint.
package upload

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/repforge/internal/ingest/alpha"
)

// Stats tracks import progress.
type Stats struct {
	FilesTotal   int
	FilesSent    int
	FilesSkipped int
	FilesErrored int

	SessionsParsed   int
	SessionsImported int
	SessionsSkipped  int
	SetsImported     int
	PRsDetected      int
	XPEarned         float64
}

// Uploader walks an export directory and sends each new CSV file to
// the RepForge server.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes the import pipeline.
func (u *Uploader) Run() (*Stats, error) {
	files, err := scanCSVFiles(u.dir)
	if err != nil {
		return &u.stats, err
	}
	u.stats.FilesTotal = len(files)

	for _, path := range files {
		if err := u.processFile(path); err != nil {
			u.stats.FilesErrored++
			u.log.Error("import failed", "file", filepath.Base(path), "error", err)
		}
	}

	return &u.stats, nil
}

func (u *Uploader) processFile(path string) error {
	rel, err := filepath.Rel(u.dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}

	done, err := u.state.IsImported(rel, info.Size(), hash)
	if err != nil {
		return fmt.Errorf("checking state: %w", err)
	}
	if done {
		u.stats.FilesSkipped++
		u.log.Info("already imported, skipping", "file", rel)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if u.dryRun {
		sessions, err := alpha.Parse(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", rel, err)
		}
		sets := 0
		for _, s := range sessions {
			for _, ex := range s.Exercises {
				sets += len(ex.Sets)
			}
		}
		u.stats.SessionsParsed += len(sessions)
		u.stats.SetsImported += sets
		u.stats.FilesSent++
		u.log.Info("dry run: parsed", "file", rel, "sessions", len(sessions), "sets", sets)
		return nil
	}

	result, err := u.client.SendCSV(data)
	if err != nil {
		return err
	}

	u.stats.FilesSent++
	u.stats.SessionsParsed += result.SessionsParsed
	u.stats.SessionsImported += result.SessionsImported
	u.stats.SessionsSkipped += result.SessionsSkipped
	u.stats.SetsImported += result.SetsImported
	u.stats.PRsDetected += result.PRsDetected
	u.stats.XPEarned += result.XPEarned

	if err := u.state.MarkImported(rel, info.Size(), hash); err != nil {
		return fmt.Errorf("recording state: %w", err)
	}

	u.log.Info("imported", "file", rel,
		"sessions_imported", result.SessionsImported,
		"sessions_skipped", result.SessionsSkipped,
		"xp_earned", result.XPEarned)
	return nil
}

// scanCSVFiles returns all .csv files under dir, sorted by name so
// exports import oldest first.
func scanCSVFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
