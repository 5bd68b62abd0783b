package processor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	ferrors "flowdown/errors"
	"flowdown/models"
)

type exporter interface {
	ExportDocument(ctx context.Context, id string) (*models.Export, error)
	ExportSpreadsheet(ctx context.Context, id string) (*models.Export, error)
	DownloadFile(ctx context.Context, id string) (*models.Export, error)
}

// Processor writes an inventory to the local filesystem
type Processor struct {
	exporter exporter
	fs       billy.Filesystem
	logger   *slog.Logger
	cfg      Config
}

// Dependencies configuration for creating a processor
type Dependencies struct {
	Exporter exporter
	// FS is rooted at the export directory
	FS     billy.Filesystem
	Logger *slog.Logger
}

// Config holds configuration for the export
type Config struct {
	// Folder limits the export to one sub-tree, relative to the export root
	Folder  string
	Matcher *Matcher
	DryRun  bool
}

// ExportStats export statistics
type ExportStats struct {
	Total    int
	Exported int
	Planned  int
	Skipped  int
	Errors   int
}

// NewProcessor creates a new export processor
func NewProcessor(d *Dependencies, cfg Config) *Processor {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		exporter: d.Exporter,
		fs:       d.FS,
		logger:   logger,
		cfg:      cfg,
	}
}

// ExportItems exports the inventory of an authenticated walk
func (p *Processor) ExportItems(ctx context.Context, items []models.DriveItem) (*ExportStats, error) {
	p.logger.Info("Exporting to", "dir", p.fs.Root())

	stats := &ExportStats{}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !p.inScope(item.Path) {
			stats.Total++
			stats.Skipped++
			continue
		}
		p.export(ctx, stats, entry{
			id:       item.ID,
			dir:      item.Path,
			name:     item.Name,
			category: item.Category,
		})
	}

	p.logStats(stats)
	return stats, nil
}

// ExportFolders exports the inventory of a public page walk. File names are
// only known once each export has been fetched.
func (p *Processor) ExportFolders(ctx context.Context, folders []models.Folder) (*ExportStats, error) {
	p.logger.Info("Exporting to", "dir", p.fs.Root())

	stats := &ExportStats{}
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		dir := folder.ExportDir()
		if !p.inScope(dir) {
			continue
		}
		p.logger.Info("Processing", "id", folder.ID, "dir", displayPath(dir))

		if dir != "" && !p.cfg.DryRun {
			if err := p.fs.MkdirAll(strings.TrimPrefix(dir, "/"), 0o755); err != nil {
				return stats, ferrors.NewIOError(fmt.Sprintf("failed to create directory %s", dir), err)
			}
		}

		for _, id := range folder.Docs {
			p.export(ctx, stats, entry{id: id, dir: dir, category: models.CategoryDocument})
		}
		for _, id := range folder.Sheets {
			p.export(ctx, stats, entry{id: id, dir: dir, category: models.CategorySpreadsheet})
		}
		for _, id := range folder.Files {
			p.export(ctx, stats, entry{id: id, dir: dir, category: models.CategoryBinary})
		}
	}

	p.logStats(stats)
	return stats, nil
}

// entry is one file to export; an empty name is taken from the export itself
type entry struct {
	id       string
	dir      string
	name     string
	category models.Category
}

func (p *Processor) export(ctx context.Context, stats *ExportStats, e entry) {
	stats.Total++

	if e.name != "" {
		e.name += e.category.Extension()
		if !p.cfg.Matcher.Match(path.Join(e.dir, e.name)) {
			p.logger.Debug("Excluded", "id", e.id, "path", path.Join(e.dir, e.name))
			stats.Skipped++
			return
		}
	}

	if p.cfg.DryRun {
		p.logger.Info("Would export", "id", e.id, "category", e.category, "dir", displayPath(e.dir), "name", e.name)
		stats.Planned++
		return
	}

	exp, err := p.fetch(ctx, e)
	if err != nil {
		p.logger.Error("Unable to export", "id", e.id, "category", e.category, "error", err)
		stats.Errors++
		return
	}
	if exp == nil {
		stats.Skipped++
		return
	}
	defer exp.Body.Close()

	if e.name == "" {
		name := exp.Name
		if name == "" {
			name = e.id
		}
		e.name = models.Sanitize(name) + e.category.Extension()
		if !p.cfg.Matcher.Match(path.Join(e.dir, e.name)) {
			p.logger.Debug("Excluded", "id", e.id, "path", path.Join(e.dir, e.name))
			stats.Skipped++
			return
		}
	}

	target := path.Join(e.dir, e.name)
	if err := p.write(target, exp.Body); err != nil {
		p.logger.Error("Unable to write", "id", e.id, "path", target, "error", err)
		stats.Errors++
		return
	}
	p.logger.Info("Exported", "id", e.id, "path", target)
	stats.Exported++
}

// fetch dispatches to the exporter of the entry's category. A nil export
// without error means the category has nothing to export.
func (p *Processor) fetch(ctx context.Context, e entry) (*models.Export, error) {
	switch e.category {
	case models.CategoryDocument:
		return p.exporter.ExportDocument(ctx, e.id)
	case models.CategorySpreadsheet:
		return p.exporter.ExportSpreadsheet(ctx, e.id)
	case models.CategoryBinary:
		return p.exporter.DownloadFile(ctx, e.id)
	case models.CategoryOther:
		p.logger.Warn("No exporter for item, skipping", "id", e.id, "name", e.name)
		return nil, nil
	case models.CategoryFolder, models.CategoryShortcut:
		return nil, fmt.Errorf("unresolved %s %s in inventory", e.category, e.id)
	default:
		return nil, fmt.Errorf("unknown category %d for %s", e.category, e.id)
	}
}

func (p *Processor) write(target string, body io.Reader) (err error) {
	target = strings.TrimPrefix(target, "/")
	if dir := path.Dir(target); dir != "." {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return ferrors.NewIOError(fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}

	f, err := p.fs.Create(target)
	if err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to create %s", target), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = ferrors.NewIOError(fmt.Sprintf("failed to close %s", target), closeErr)
		}
	}()

	if _, err := io.Copy(f, body); err != nil {
		return ferrors.NewIOError(fmt.Sprintf("failed to write %s", target), err)
	}
	return nil
}

// inScope reports whether dir lies within the configured sub-tree
func (p *Processor) inScope(dir string) bool {
	folder := strings.Trim(p.cfg.Folder, "/")
	if folder == "" {
		return true
	}
	dir = strings.Trim(dir, "/")
	return dir == folder || strings.HasPrefix(dir, folder+"/")
}

func (p *Processor) logStats(stats *ExportStats) {
	p.logger.Info("Export completed",
		"total", stats.Total,
		"exported", stats.Exported,
		"planned", stats.Planned,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
	)
}
