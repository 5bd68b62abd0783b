package processor_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "flowdown/errors"
	"flowdown/models"
	"flowdown/processor"
)

type fakeExporter struct {
	docs   map[string]*models.Export
	sheets map[string]*models.Export
	files  map[string]*models.Export

	mu    sync.Mutex
	calls []string
}

func content(name, body string) *models.Export {
	return &models.Export{Name: name, Body: io.NopCloser(strings.NewReader(body))}
}

func (f *fakeExporter) lookup(kind string, m map[string]*models.Export, id string) (*models.Export, error) {
	f.mu.Lock()
	f.calls = append(f.calls, kind+":"+id)
	f.mu.Unlock()

	exp, ok := m[id]
	if !ok {
		return nil, ferrors.NewAPIError("no such "+kind, nil)
	}
	return exp, nil
}

func (f *fakeExporter) ExportDocument(ctx context.Context, id string) (*models.Export, error) {
	return f.lookup("doc", f.docs, id)
}

func (f *fakeExporter) ExportSpreadsheet(ctx context.Context, id string) (*models.Export, error) {
	return f.lookup("sheet", f.sheets, id)
}

func (f *fakeExporter) DownloadFile(ctx context.Context, id string) (*models.Export, error) {
	return f.lookup("file", f.files, id)
}

func newTestProcessor(exp *fakeExporter, cfg processor.Config) (*processor.Processor, billy.Filesystem) {
	fs := memfs.New()
	return processor.NewProcessor(&processor.Dependencies{
		Exporter: exp,
		FS:       fs,
		Logger:   discardLogger(),
	}, cfg), fs
}

func readFile(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func item(id, path, name string, category models.Category) models.DriveItem {
	return models.DriveItem{ID: id, Path: path, Name: name, Category: category}
}

func TestProcessor_ExportItems(t *testing.T) {
	exp := &fakeExporter{
		docs:   map[string]*models.Export{"d1": content("Ignored title", "# Notes\n")},
		sheets: map[string]*models.Export{"s1": content("Prices", `[{"a":"1"}]`)},
		files:  map[string]*models.Export{"b1": content("", "PNG")},
	}
	p, fs := newTestProcessor(exp, processor.Config{})

	stats, err := p.ExportItems(context.Background(), []models.DriveItem{
		item("d1", "", "Notes", models.CategoryDocument),
		item("s1", "/Data/2024", "Prices", models.CategorySpreadsheet),
		item("b1", "/Media", "photo.png", models.CategoryBinary),
		item("o1", "", "Slides", models.CategoryOther),
		item("missing", "", "Gone", models.CategoryDocument),
	})
	require.NoError(t, err)

	assert.Equal(t, &processor.ExportStats{Total: 5, Exported: 3, Skipped: 1, Errors: 1}, stats)
	assert.Equal(t, "# Notes\n", readFile(t, fs, "Notes.md"))
	assert.Equal(t, `[{"a":"1"}]`, readFile(t, fs, "Data/2024/Prices.json"))
	assert.Equal(t, "PNG", readFile(t, fs, "Media/photo.png"))
	assert.NotContains(t, exp.calls, "doc:o1")
}

func TestProcessor_ExportItemsMatcher(t *testing.T) {
	exp := &fakeExporter{
		docs:  map[string]*models.Export{"d1": content("", "doc")},
		files: map[string]*models.Export{"b1": content("", "bin"), "b2": content("", "tmp")},
	}
	matcher, err := processor.NewMatcher([]string{"Work/**"}, []string{"**/*.tmp"})
	require.NoError(t, err)
	p, fs := newTestProcessor(exp, processor.Config{Matcher: matcher})

	stats, err := p.ExportItems(context.Background(), []models.DriveItem{
		item("d1", "/Work", "Plan", models.CategoryDocument),
		item("b1", "/Home", "a.bin", models.CategoryBinary),
		item("b2", "/Work", "scratch.tmp", models.CategoryBinary),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Exported)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, []string{"doc:d1"}, exp.calls)
	assert.Equal(t, "doc", readFile(t, fs, "Work/Plan.md"))
}

func TestProcessor_ExportItemsFolderScope(t *testing.T) {
	exp := &fakeExporter{
		files: map[string]*models.Export{"in": content("", "in"), "deep": content("", "deep"), "out": content("", "out")},
	}
	p, fs := newTestProcessor(exp, processor.Config{Folder: "/Keep/"})

	stats, err := p.ExportItems(context.Background(), []models.DriveItem{
		item("in", "/Keep", "a", models.CategoryBinary),
		item("deep", "/Keep/Sub", "b", models.CategoryBinary),
		item("out", "/Keeper", "c", models.CategoryBinary),
	})
	require.NoError(t, err)

	assert.Equal(t, &processor.ExportStats{Total: 3, Exported: 2, Skipped: 1}, stats)
	assert.Equal(t, "deep", readFile(t, fs, "Keep/Sub/b"))
	_, err = fs.Stat("Keeper/c")
	assert.Error(t, err)
}

func TestProcessor_DryRun(t *testing.T) {
	exp := &fakeExporter{}
	p, fs := newTestProcessor(exp, processor.Config{DryRun: true})

	stats, err := p.ExportItems(context.Background(), []models.DriveItem{
		item("d1", "/A", "Doc", models.CategoryDocument),
		item("b1", "", "file.bin", models.CategoryBinary),
	})
	require.NoError(t, err)

	assert.Equal(t, &processor.ExportStats{Total: 2, Planned: 2}, stats)
	assert.Empty(t, exp.calls)
	_, err = fs.Stat("A")
	assert.Error(t, err)
	_, err = fs.Stat("file.bin")
	assert.Error(t, err)
}

func TestProcessor_ExportFolders(t *testing.T) {
	exp := &fakeExporter{
		docs:   map[string]*models.Export{"d1": content("Welcome Page", "# Hi\n")},
		sheets: map[string]*models.Export{"s1": content("Menu - Sheet1", "[]")},
		files: map[string]*models.Export{
			"b1": content("report.pdf", "%PDF"),
			"b2": content("", "raw"),
		},
	}
	p, fs := newTestProcessor(exp, processor.Config{})

	stats, err := p.ExportFolders(context.Background(), []models.Folder{
		{ID: "root", IsRoot: true, Name: "Root", Docs: []string{"d1"}, Files: []string{"b2"}},
		{ID: "a", Path: "", Name: "Menus", Sheets: []string{"s1"}, Files: []string{"b1", "bad"}},
		{ID: "e", Path: "/Menus", Name: "Empty"},
	})
	require.NoError(t, err)

	assert.Equal(t, &processor.ExportStats{Total: 5, Exported: 4, Errors: 1}, stats)
	assert.Equal(t, "# Hi\n", readFile(t, fs, "Welcome_Page.md"))
	assert.Equal(t, "raw", readFile(t, fs, "b2"))
	assert.Equal(t, "[]", readFile(t, fs, "Menus/Menu_-_Sheet1.json"))
	assert.Equal(t, "%PDF", readFile(t, fs, "Menus/report.pdf"))

	info, err := fs.Stat("Menus/Empty")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestProcessor_ExportFoldersMatcherUsesExportedName(t *testing.T) {
	exp := &fakeExporter{
		files: map[string]*models.Export{
			"keep": content("keep.pdf", "pdf"),
			"drop": content("drop.zip", "zip"),
		},
	}
	matcher, err := processor.NewMatcher(nil, []string{"**/*.zip"})
	require.NoError(t, err)
	p, fs := newTestProcessor(exp, processor.Config{Matcher: matcher})

	stats, err := p.ExportFolders(context.Background(), []models.Folder{
		{ID: "root", IsRoot: true, Name: "Root", Files: []string{"keep", "drop"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Exported)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, "pdf", readFile(t, fs, "keep.pdf"))
	_, err = fs.Stat("drop.zip")
	assert.Error(t, err)
}

func TestProcessor_CancelledContext(t *testing.T) {
	p, _ := newTestProcessor(&fakeExporter{}, processor.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ExportItems(ctx, []models.DriveItem{item("d1", "", "Doc", models.CategoryDocument)})
	require.ErrorIs(t, err, context.Canceled)
}
