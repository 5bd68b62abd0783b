package processor

import (
	"context"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	ferrors "flowdown/errors"
	"flowdown/models"
)

var (
	titlePattern  = regexp.MustCompile(`<title>(.*) – Google Drive</title>`)
	folderPattern = regexp.MustCompile(`https://drive\.google\.com/drive/folders/[-_0-9a-zA-Z]{33}`)
	docPattern    = regexp.MustCompile(`https://docs\.google\.com/document/d/[-_0-9a-zA-Z]{44}`)
	sheetPattern  = regexp.MustCompile(`https://docs\.google\.com/spreadsheets/d/[-_0-9a-zA-Z]{44}`)
	filePattern   = regexp.MustCompile(`https://drive\.google\.com/file/d/[-_0-9a-zA-Z]{33}`)
)

type pageFetcher interface {
	FetchFolderPage(ctx context.Context, folderID string) (string, error)
}

// Scraper builds the folder inventory of a publicly shared tree from the
// folders' HTML pages, without credentials.
type Scraper struct {
	client     pageFetcher
	logger     *slog.Logger
	sem        *semaphore.Weighted
	skipErrors bool
}

// NewScraper creates a scraper over the given page client
func NewScraper(client pageFetcher, opts ...Option) *Scraper {
	o := newOptions(opts)
	return &Scraper{
		client:     client,
		logger:     o.logger,
		sem:        o.semaphore(),
		skipErrors: o.skipErrors,
	}
}

// Walk fetches folderID and every folder linked from it, returning them in
// pre-order: each folder precedes its sub-folders, siblings keep page order.
func (s *Scraper) Walk(ctx context.Context, folderID, path string, isRoot bool) ([]models.Folder, error) {
	s.logger.Info("Fetching", "id", folderID, "path", displayPath(path))

	body, err := s.fetch(ctx, folderID)
	if err != nil {
		return nil, err
	}
	folder, children, err := ParseFolderPage(folderID, path, isRoot, body)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]models.Folder, len(children))
	childPath := folder.ChildPath()
	for i, id := range children {
		i, id := i, id
		g.Go(func() error {
			sub, err := s.Walk(gctx, id, childPath, false)
			if err != nil {
				if s.skipErrors && gctx.Err() == nil {
					s.logger.Warn("Skipping unreachable folder", "id", id, "path", displayPath(childPath), "error", err)
					return nil
				}
				return err
			}
			results[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	folders := []models.Folder{folder}
	for _, sub := range results {
		folders = append(folders, sub...)
	}
	return folders, nil
}

func (s *Scraper) fetch(ctx context.Context, folderID string) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.sem.Release(1)
	return s.client.FetchFolderPage(ctx, folderID)
}

// ParseFolderPage extracts a folder's name and links from its public page.
// It returns the folder record and the ids of its sub-folders, never
// including folderID itself.
func ParseFolderPage(folderID, path string, isRoot bool, body string) (models.Folder, []string, error) {
	title := titlePattern.FindStringSubmatch(body)
	if title == nil {
		return models.Folder{}, nil, &ferrors.TitleNotFoundError{FolderID: folderID}
	}

	folder := models.Folder{
		ID:     folderID,
		Path:   path,
		IsRoot: isRoot,
		Name:   strings.TrimSpace(html.UnescapeString(title[1])),
		Docs:   linkIDs(body, docPattern, ""),
		Sheets: linkIDs(body, sheetPattern, ""),
		Files:  linkIDs(body, filePattern, ""),
	}
	return folder, linkIDs(body, folderPattern, folderID), nil
}

// linkIDs returns the unique last path segments of every match, in first-seen order
func linkIDs(body string, pattern *regexp.Regexp, exclude string) []string {
	seen := map[string]bool{}
	ids := []string{}
	for _, link := range pattern.FindAllString(body, -1) {
		id := link[strings.LastIndex(link, "/")+1:]
		if id == "" || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
