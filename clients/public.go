package clients

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"

	ferrors "flowdown/errors"
	"flowdown/models"
)

const (
	DriveBaseURL = "https://drive.google.com"
	DocsBaseURL  = "https://docs.google.com"

	sniffLen = 3072
)

var (
	confirmFormPattern = regexp.MustCompile(`<form[^>]+id="download-form"[^>]+action="([^"]+)"`)
	hiddenInputPattern = regexp.MustCompile(`<input type="hidden" name="([^"]+)" value="([^"]*)"`)
)

// PublicClient client for unauthenticated access to publicly shared Drive content
type PublicClient struct {
	driveURL string
	docsURL  string
	client   *resty.Client
}

// NewPublicClient creates a new client; empty base URLs fall back to the Google hosts
func NewPublicClient(driveURL, docsURL string) *PublicClient {
	if driveURL == "" {
		driveURL = DriveBaseURL
	}
	if docsURL == "" {
		docsURL = DocsBaseURL
	}

	client := resty.New()
	client.SetDisableWarn(true)
	client.SetHeader("User-Agent", "flowdown")

	return &PublicClient{
		driveURL: strings.TrimSuffix(driveURL, "/"),
		docsURL:  strings.TrimSuffix(docsURL, "/"),
		client:   client,
	}
}

// FetchFolderPage gets the public HTML representation of a folder
func (pc *PublicClient) FetchFolderPage(ctx context.Context, folderID string) (string, error) {
	resp, err := pc.client.R().
		SetContext(ctx).
		Get(pc.driveURL + "/drive/folders/" + url.PathEscape(folderID))
	if err != nil {
		return "", fmt.Errorf("failed to fetch folder %s: %w", folderID, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &ferrors.ScrapeFetchError{
			FolderID:   folderID,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
		}
	}

	return resp.String(), nil
}

// ExportDocument downloads a public Google Doc as Markdown
func (pc *PublicClient) ExportDocument(ctx context.Context, id string) (*models.Export, error) {
	resp, err := pc.get(ctx, pc.docsURL+"/document/d/"+url.PathEscape(id)+"/export", map[string]string{"format": "md"})
	if err != nil {
		return nil, fmt.Errorf("failed to export document %s: %w", id, err)
	}

	return &models.Export{
		Name: trimExt(filenameFromResponse(resp)),
		Body: resp.RawBody(),
	}, nil
}

// ExportSpreadsheet downloads the first sheet of a public spreadsheet as CSV and
// converts it to JSON rows
func (pc *PublicClient) ExportSpreadsheet(ctx context.Context, id string) (*models.Export, error) {
	resp, err := pc.get(ctx, pc.docsURL+"/spreadsheets/d/"+url.PathEscape(id)+"/export", map[string]string{"format": "csv"})
	if err != nil {
		return nil, fmt.Errorf("failed to export spreadsheet %s: %w", id, err)
	}
	defer resp.RawBody().Close()

	reader := csv.NewReader(resp.RawBody())
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, ferrors.NewIOError(fmt.Sprintf("failed to parse spreadsheet %s", id), err)
	}

	data, err := json.MarshalIndent(RowsToRecords(rows), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode spreadsheet %s: %w", id, err)
	}

	return &models.Export{
		Name: trimExt(filenameFromResponse(resp)),
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

// DownloadFile downloads a public file. Large files are answered with a virus
// scan warning page first; its confirmation form is submitted once.
func (pc *PublicClient) DownloadFile(ctx context.Context, id string) (*models.Export, error) {
	resp, err := pc.get(ctx, pc.driveURL+"/uc", map[string]string{"id": id, "export": "download"})
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", id, err)
	}

	if resp.Header().Get("Content-Disposition") == "" && isHTML(resp) {
		page, readErr := io.ReadAll(resp.RawBody())
		resp.RawBody().Close()
		if readErr != nil {
			return nil, ferrors.NewIOError(fmt.Sprintf("failed to read download page of %s", id), readErr)
		}
		action, params, ok := parseConfirmForm(string(page))
		if !ok {
			return nil, fmt.Errorf("file %s is not shared publicly: %w", id, ferrors.ErrRemoteAPI)
		}
		target, parseErr := pc.resolve(action)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid confirmation target for %s: %w", id, parseErr)
		}
		resp, err = pc.get(ctx, target, params)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm download of %s: %w", id, err)
		}
	}

	name := filenameFromResponse(resp)
	body := bufio.NewReaderSize(resp.RawBody(), sniffLen)
	if name == "" {
		head, _ := body.Peek(sniffLen)
		name = id + mimetype.Detect(head).Extension()
	}

	return &models.Export{
		Name: name,
		Body: readCloser{Reader: body, Closer: resp.RawBody()},
	}, nil
}

// get issues a streaming GET; on success the caller owns resp.RawBody()
func (pc *PublicClient) get(ctx context.Context, rawURL string, query map[string]string) (*resty.Response, error) {
	resp, err := pc.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		resp.RawBody().Close()
		return nil, ferrors.NewAPIError(fmt.Sprintf("request failed: status %d", resp.StatusCode()), nil)
	}

	return resp, nil
}

// resolve makes a form action absolute against the drive host
func (pc *PublicClient) resolve(action string) (string, error) {
	base, err := url.Parse(pc.driveURL + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func isHTML(resp *resty.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Header().Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

func filenameFromResponse(resp *resty.Response) string {
	disposition := resp.Header().Get("Content-Disposition")
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return ""
	}
	return path.Base(params["filename"])
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// parseConfirmForm extracts the target and hidden fields of the download
// confirmation form served for files too large to be virus scanned.
func parseConfirmForm(page string) (action string, params map[string]string, ok bool) {
	form := confirmFormPattern.FindStringSubmatch(page)
	if form == nil {
		return "", nil, false
	}
	params = map[string]string{}
	for _, input := range hiddenInputPattern.FindAllStringSubmatch(page, -1) {
		params[input[1]] = input[2]
	}
	if _, found := params["confirm"]; !found {
		return "", nil, false
	}
	return strings.ReplaceAll(form[1], "&amp;", "&"), params, true
}
