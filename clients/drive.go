package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	ferrors "flowdown/errors"
	"flowdown/models"
)

const (
	driveFileFields  = "id,name,mimeType,shortcutDetails"
	driveFilesFields = "nextPageToken,files(id,name,mimeType,shortcutDetails)"
)

// DriveClient client for working with the authenticated Drive, Docs and Sheets APIs
type DriveClient struct {
	drive  *drive.Service
	docs   *docs.Service
	sheets *sheets.Service
}

// NewDriveClient creates the API services sharing the same client options
func NewDriveClient(ctx context.Context, opts ...option.ClientOption) (*DriveClient, error) {
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	docsService, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}
	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &DriveClient{
		drive:  driveService,
		docs:   docsService,
		sheets: sheetsService,
	}, nil
}

// ListChildren fetches one page of the children of a folder
func (dc *DriveClient) ListChildren(ctx context.Context, folderID, pageToken string) (models.Page, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	call := dc.drive.Files.List().
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Q(q).
		Fields(driveFilesFields).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Do()
	if err != nil {
		return models.Page{}, ferrors.NewAPIError(fmt.Sprintf("failed to list children of %s", folderID), err)
	}

	page := models.Page{NextPageToken: res.NextPageToken}
	for _, f := range res.Files {
		page.Files = append(page.Files, newRemoteFile(f))
	}
	return page, nil
}

// GetMetadata gets id, name and MIME type of a single item
func (dc *DriveClient) GetMetadata(ctx context.Context, id string) (models.RemoteFile, error) {
	f, err := dc.drive.Files.Get(id).
		SupportsAllDrives(true).
		Fields(driveFileFields).
		Context(ctx).
		Do()
	if err != nil {
		return models.RemoteFile{}, ferrors.NewAPIError(fmt.Sprintf("failed to get metadata of %s", id), err)
	}
	return newRemoteFile(f), nil
}

// ExportDocument renders a Google Doc as Markdown
func (dc *DriveClient) ExportDocument(ctx context.Context, id string) (*models.Export, error) {
	doc, err := dc.docs.Documents.Get(id).Context(ctx).Do()
	if err != nil {
		return nil, ferrors.NewAPIError(fmt.Sprintf("failed to get document %s", id), err)
	}
	return &models.Export{
		Name: doc.Title,
		Body: io.NopCloser(bytes.NewBufferString(DocumentToMarkdown(doc))),
	}, nil
}

// ExportSpreadsheet renders the first sheet of a spreadsheet as JSON rows
func (dc *DriveClient) ExportSpreadsheet(ctx context.Context, id string) (*models.Export, error) {
	ss, err := dc.sheets.Spreadsheets.Get(id).
		Fields("properties.title,sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, ferrors.NewAPIError(fmt.Sprintf("failed to get spreadsheet %s", id), err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, ferrors.NewAPIError(fmt.Sprintf("spreadsheet %s has no sheets", id), nil)
	}

	sheetTitle := ss.Sheets[0].Properties.Title
	values, err := dc.sheets.Spreadsheets.Values.Get(id, quoteSheetTitle(sheetTitle)).Context(ctx).Do()
	if err != nil {
		return nil, ferrors.NewAPIError(fmt.Sprintf("failed to get values of %s", id), err)
	}

	rows := make([][]string, 0, len(values.Values))
	for _, row := range values.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		rows = append(rows, cells)
	}

	data, err := json.MarshalIndent(RowsToRecords(rows), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode spreadsheet %s: %w", id, err)
	}
	title := ""
	if ss.Properties != nil {
		title = ss.Properties.Title
	}
	return &models.Export{
		Name: title,
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

// DownloadFile streams the raw bytes of a binary file. The name is left empty:
// the listing that produced the id already carries it.
func (dc *DriveClient) DownloadFile(ctx context.Context, id string) (*models.Export, error) {
	resp, err := dc.drive.Files.Get(id).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, ferrors.NewAPIError(fmt.Sprintf("failed to download %s", id), err)
	}
	return &models.Export{Body: resp.Body}, nil
}

func newRemoteFile(f *drive.File) models.RemoteFile {
	rf := models.RemoteFile{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
	}
	if f.ShortcutDetails != nil {
		rf.TargetID = f.ShortcutDetails.TargetId
		rf.TargetMimeType = f.ShortcutDetails.TargetMimeType
	}
	return rf
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return s
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
