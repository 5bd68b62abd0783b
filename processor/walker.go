package processor

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"flowdown/models"
)

type driveLister interface {
	ListChildren(ctx context.Context, folderID, pageToken string) (models.Page, error)
	GetMetadata(ctx context.Context, id string) (models.RemoteFile, error)
}

// Walker builds the export inventory of a folder tree through the Drive API
type Walker struct {
	client driveLister
	logger *slog.Logger
	sem    *semaphore.Weighted
}

// NewWalker creates a walker over the given listing client
func NewWalker(client driveLister, opts ...Option) *Walker {
	o := newOptions(opts)
	return &Walker{
		client: client,
		logger: o.logger,
		sem:    o.semaphore(),
	}
}

// segment holds the inventory contributed by one child, in listing order.
// Sub-folder segments are filled by their own goroutine.
type segment struct {
	items []models.DriveItem
}

// Walk lists folderID recursively and returns its items depth-first,
// parents before children, in pagination order. Sub-folders are walked
// in parallel but spliced back at the position the folder was listed.
func (w *Walker) Walk(ctx context.Context, folderID, path string) ([]models.DriveItem, error) {
	return w.walk(ctx, folderID, path, []string{folderID})
}

func (w *Walker) walk(ctx context.Context, folderID, path string, ancestors []string) ([]models.DriveItem, error) {
	w.logger.Info("Listing", "id", folderID, "path", displayPath(path))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var segments []*segment
	descend := func(id, childPath string) {
		seg := &segment{}
		segments = append(segments, seg)
		chain := append(slices.Clone(ancestors), id)
		g.Go(func() error {
			items, err := w.walk(gctx, id, childPath, chain)
			if err != nil {
				return err
			}
			seg.items = items
			return nil
		})
	}

	pageToken := ""
	for {
		page, err := w.listPage(gctx, folderID, pageToken)
		if err != nil {
			return nil, abort(cancel, g, gctx, err)
		}

		for _, file := range page.Files {
			switch models.Classify(file.MimeType) {
			case models.CategoryFolder:
				descend(file.ID, path+"/"+file.Name)
			case models.CategoryShortcut:
				w.followShortcut(gctx, file, path, ancestors, descend, func(item models.DriveItem) {
					segments = append(segments, &segment{items: []models.DriveItem{item}})
				})
			case models.CategoryDocument, models.CategorySpreadsheet, models.CategoryBinary, models.CategoryOther:
				segments = append(segments, &segment{items: []models.DriveItem{newDriveItem(file.ID, path, file.Name, file.MimeType)}})
			}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []models.DriveItem
	for _, seg := range segments {
		items = append(items, seg.items...)
	}
	return items, nil
}

// followShortcut resolves a shortcut to its target. Failures only cost the
// shortcut itself.
func (w *Walker) followShortcut(
	ctx context.Context,
	file models.RemoteFile,
	path string,
	ancestors []string,
	descend func(id, childPath string),
	emit func(models.DriveItem),
) {
	w.logger.Info("Following shortcut", "name", file.Name, "target", file.TargetID)
	if file.TargetID == "" {
		w.logger.Warn("Shortcut has no target, skipping", "id", file.ID, "name", file.Name)
		return
	}

	target, err := w.getMetadata(ctx, file.TargetID)
	if err != nil {
		w.logger.Warn("Unable to resolve shortcut, skipping", "id", file.ID, "name", file.Name, "error", err)
		return
	}

	switch models.Classify(target.MimeType) {
	case models.CategoryFolder:
		if slices.Contains(ancestors, target.ID) {
			w.logger.Warn("Shortcut points to an enclosing folder, skipping", "id", file.ID, "target", target.ID)
			return
		}
		descend(target.ID, path+"/"+file.Name)
	case models.CategoryShortcut:
		w.logger.Warn("Shortcut points to another shortcut, skipping", "id", file.ID, "target", target.ID)
	case models.CategoryDocument, models.CategorySpreadsheet, models.CategoryBinary, models.CategoryOther:
		emit(newDriveItem(target.ID, path, file.Name, target.MimeType))
	}
}

func (w *Walker) listPage(ctx context.Context, folderID, pageToken string) (models.Page, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return models.Page{}, err
	}
	defer w.sem.Release(1)
	return w.client.ListChildren(ctx, folderID, pageToken)
}

func (w *Walker) getMetadata(ctx context.Context, id string) (models.RemoteFile, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return models.RemoteFile{}, err
	}
	defer w.sem.Release(1)
	return w.client.GetMetadata(ctx, id)
}

// abort stops the sibling goroutines of a failed fetch. When gctx was already
// cancelled a sub-folder failed first, and its error is the one reported.
func abort(cancel context.CancelFunc, g *errgroup.Group, gctx context.Context, err error) error {
	childFailed := gctx.Err() != nil
	cancel()
	waitErr := g.Wait()
	if childFailed && waitErr != nil {
		return waitErr
	}
	return err
}

func newDriveItem(id, path, name, mime string) models.DriveItem {
	return models.DriveItem{
		ID:       id,
		Path:     path,
		Name:     models.Sanitize(name),
		Mime:     mime,
		Category: models.Classify(mime),
	}
}
