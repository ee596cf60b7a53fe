// Package shadow implements component D: build-in-shadow, verify, atomic
// swap, backup retention, and crash recovery for full graph rebuilds.
package shadow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/ingest"
	"github.com/jersy/ariadne/internal/logging"
)

// timestampLayout matches §6's "<db>_new_<YYYYMMDD_HHMMSS>.db" / backup
// naming convention.
const timestampLayout = "20060102_150405"

// Stats summarizes one rebuild_full() run, returned to the job queue as
// the job's completion payload.
type Stats struct {
	SymbolCount int
	EdgeCount   int
	Duration    time.Duration
	ShadowPath  string
	BackupPath  string
}

// Rebuilder owns the current database path and drives the shadow-rebuild
// protocol against it.
type Rebuilder struct {
	currentPath     string
	analyzer        *ingest.Client
	backupRetention int
}

// New builds a Rebuilder for the database at currentPath.
func New(currentPath string, analyzer *ingest.Client, backupRetention int) *Rebuilder {
	if backupRetention <= 0 {
		backupRetention = 3
	}
	return &Rebuilder{currentPath: currentPath, analyzer: analyzer, backupRetention: backupRetention}
}

// RebuildFull implements 4.D's rebuild_full(): construct a shadow database,
// run the extractor against it, verify it, then atomically swap it in for
// the current one. The current database is never left in an inconsistent
// state visible to readers.
func (r *Rebuilder) RebuildFull(ctx context.Context) (*Stats, error) {
	log := logging.Get(logging.CategoryShadow)
	start := time.Now()

	shadowPath := shadowPathFor(r.currentPath, time.Now())
	log.Infow("starting full rebuild", "shadow_path", shadowPath)

	shadow, err := graphstore.Open(shadowPath)
	if err != nil {
		return nil, err
	}
	// Closed explicitly before the swap; a defer-based close would race
	// the rename on platforms that forbid renaming an open file.
	closeShadow := func() {
		if shadow != nil {
			shadow.Close()
		}
	}

	classes, err := r.analyzer.FetchAll(ctx)
	if err != nil {
		closeShadow()
		os.Remove(shadowPath)
		return nil, err
	}

	g := ingest.Transform(classes)
	if err := shadow.InsertSymbols(g.Symbols); err != nil {
		closeShadow()
		os.Remove(shadowPath)
		return nil, err
	}
	if err := shadow.InsertEdges(g.Edges); err != nil {
		closeShadow()
		os.Remove(shadowPath)
		return nil, err
	}
	for _, ep := range g.EntryPoints {
		if err := shadow.UpsertEntryPoint(ep); err != nil {
			closeShadow()
			os.Remove(shadowPath)
			return nil, err
		}
	}
	for _, ed := range g.ExternalDeps {
		if err := shadow.UpsertExternalDependency(ed); err != nil {
			closeShadow()
			os.Remove(shadowPath)
			return nil, err
		}
	}

	if err := verify(shadow); err != nil {
		closeShadow()
		os.Remove(shadowPath)
		log.Errorw("shadow verification failed, discarding shadow", "error", err)
		return nil, err
	}

	symbolCount, _ := shadow.SymbolCount()
	closeShadow()

	backupPath, err := swap(r.currentPath, shadowPath)
	if err != nil {
		return nil, err
	}

	if err := CleanupOldBackups(r.currentPath, r.backupRetention); err != nil {
		log.Warnw("backup cleanup failed", "error", err)
	}

	stats := &Stats{
		SymbolCount: symbolCount,
		EdgeCount:   len(g.Edges),
		Duration:    time.Since(start),
		ShadowPath:  shadowPath,
		BackupPath:  backupPath,
	}
	log.Infow("full rebuild complete", "symbols", stats.SymbolCount, "edges", stats.EdgeCount, "duration", stats.Duration)
	return stats, nil
}

// verify implements 4.D.3: non-zero symbol count, zero orphaned edges, FK
// check clean, engine integrity check clean. Any failure is an
// IntegrityError.
func verify(shadow *graphstore.Store) error {
	n, err := shadow.SymbolCount()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.IntegrityError, "shadow: symbol count is zero")
	}

	orphans, err := shadow.OrphanedEdgeCount()
	if err != nil {
		return err
	}
	if orphans != 0 {
		return apperr.New(apperr.IntegrityError, "shadow: %d orphaned edges", orphans)
	}

	if err := shadow.ForeignKeyCheck(); err != nil {
		return err
	}
	if err := shadow.IntegrityCheck(); err != nil {
		return err
	}
	return nil
}

// swap implements 4.D.4's three-way atomic rename. On any error mid
// sequence it attempts to restore the prior state.
func swap(currentPath, shadowPath string) (backupPath string, err error) {
	backupPath = backupPathFor(currentPath, time.Now())

	currentExists := fileExists(currentPath)
	if currentExists {
		if err := os.Rename(currentPath, backupPath); err != nil {
			return "", apperr.Wrap(apperr.RebuildFailed, err, "shadow: rename current to backup")
		}
	}

	if err := os.Rename(shadowPath, currentPath); err != nil {
		// Attempt reverse rename: restore the backup to current.
		if currentExists {
			if rerr := os.Rename(backupPath, currentPath); rerr != nil {
				return "", apperr.Wrap(apperr.RebuildFailed, rerr,
					"shadow: swap failed (%v) and recovery rename also failed", err)
			}
		}
		return "", apperr.Wrap(apperr.RebuildFailed, err, "shadow: rename shadow to current")
	}

	return backupPath, nil
}

// RecoverIncompleteSwap implements 4.D.5: on startup, detect a swap that
// died between the two renames (a *_backup_* exists and current is
// missing or zero-sized) and complete recovery automatically.
func RecoverIncompleteSwap(currentPath string) error {
	log := logging.Get(logging.CategoryShadow)

	backups, err := listBackups(currentPath)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return nil
	}

	incomplete := !fileExists(currentPath) || fileIsEmpty(currentPath)
	if !incomplete {
		return nil
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].mtime.After(backups[j].mtime) })
	newest := backups[0]

	log.Warnw("detected incomplete shadow swap, restoring most recent backup", "backup", newest.path)
	if fileExists(currentPath) {
		if err := os.Remove(currentPath); err != nil {
			return apperr.Wrap(apperr.RebuildFailed, err, "shadow: remove zero-sized current before recovery")
		}
	}
	if err := os.Rename(newest.path, currentPath); err != nil {
		return apperr.Wrap(apperr.RebuildFailed, err, "shadow: restore backup %s", newest.path)
	}
	return nil
}

// CleanupOldBackups implements 4.D's retention policy: keep the keepCount
// most-recent backup files by mtime, delete the rest.
func CleanupOldBackups(currentPath string, keepCount int) error {
	backups, err := listBackups(currentPath)
	if err != nil {
		return err
	}
	if len(backups) <= keepCount {
		return nil
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].mtime.After(backups[j].mtime) })
	log := logging.Get(logging.CategoryShadow)
	for _, b := range backups[keepCount:] {
		if err := os.Remove(b.path); err != nil {
			log.Warnw("failed to remove old backup", "path", b.path, "error", err)
			continue
		}
		log.Infow("removed old backup", "path", b.path)
	}
	return nil
}

type backupFile struct {
	path  string
	mtime time.Time
}

func listBackups(currentPath string) ([]backupFile, error) {
	dir := filepath.Dir(currentPath)
	base := filepath.Base(currentPath)
	prefix := base + "_backup_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Unavailable, err, "shadow: read directory %s", dir)
	}

	var out []backupFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, backupFile{path: filepath.Join(dir, e.Name()), mtime: info.ModTime()})
	}
	return out, nil
}

func shadowPathFor(currentPath string, ts time.Time) string {
	dir := filepath.Dir(currentPath)
	ext := filepath.Ext(currentPath)
	base := strings.TrimSuffix(filepath.Base(currentPath), ext)
	return filepath.Join(dir, fmt.Sprintf("%s_new_%s%s", base, ts.Format(timestampLayout), ext))
}

func backupPathFor(currentPath string, ts time.Time) string {
	return fmt.Sprintf("%s_backup_%s", currentPath, ts.Format(timestampLayout))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fileIsEmpty(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.Size() == 0
}
