package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"sheetledger/internal/core"
	ports "sheetledger/internal/sheets"

	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client talks to Drive for discovery and to Sheets for rows, on behalf of a
// single signed-in user.
type Client struct {
	drive *gdrive.Service
	svc   *gsheet.Service
}

// Ensure interface conformance
var _ ports.Backend = (*Client)(nil)

// sharedTransport is reused by every per-user client so connections to the
// Google APIs are pooled across sessions.
var sharedTransport = newHTTPClientWithPooling()

// NewForToken builds a client authorized by the user's OAuth token source.
func NewForToken(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	if ts == nil {
		return nil, errors.New("missing token source")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, sharedTransport)
	return New(ctx, goption.WithHTTPClient(oauth2.NewClient(ctx, ts)))
}

// New builds a client from arbitrary client options. Tests use it to point
// both services at a fake endpoint.
func New(ctx context.Context, opts ...goption.ClientOption) (*Client, error) {
	driveSvc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	sheetsSvc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{drive: driveSvc, svc: sheetsSvc}, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Google APIs
// with connection pooling, timeouts and keep-alive.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Locate searches Drive for spreadsheets called name. Results are ordered by
// creation time so the oldest match is always the one picked.
func (c *Client) Locate(ctx context.Context, name string) (ports.LocateResult, error) {
	if c.drive == nil {
		return ports.LocateResult{}, errors.New("drive service not initialized")
	}
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(name), ports.MimeType)
	resp, err := c.drive.Files.List().
		Q(q).
		Spaces("drive").
		Fields("files(id, name)").
		OrderBy("createdTime").
		Context(ctx).
		Do()
	if err != nil {
		return ports.LocateResult{}, fmt.Errorf("search drive for %q: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return ports.LocateResult{}, ports.ErrNotFound
	}
	if len(resp.Files) > 1 {
		slog.WarnContext(ctx, "Multiple ledger spreadsheets found, using the oldest",
			"name", name, "matches", len(resp.Files), "resource_id", resp.Files[0].Id)
	}
	return ports.LocateResult{ResourceID: resp.Files[0].Id, Matches: len(resp.Files)}, nil
}

// Create provisions the spreadsheet with a single 1000x3 sheet and writes the
// header row.
func (c *Client) Create(ctx context.Context, name string) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	ss := &gsheet.Spreadsheet{
		Properties: &gsheet.SpreadsheetProperties{Title: name},
		Sheets: []*gsheet.Sheet{
			{
				Properties: &gsheet.SheetProperties{
					Title: ports.SheetName,
					GridProperties: &gsheet.GridProperties{
						RowCount:    ports.GridRows,
						ColumnCount: ports.GridColumns,
					},
				},
			},
		},
	}
	created, err := c.svc.Spreadsheets.Create(ss).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet %q: %w", name, err)
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{ports.Header}}
	_, err = c.svc.Spreadsheets.Values.Update(created.SpreadsheetId, ports.HeaderRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write header to %s: %w", created.SpreadsheetId, err)
	}
	return created.SpreadsheetId, nil
}

// ReadEntries reads Expenses!A2:C and normalizes every row.
func (c *Client) ReadEntries(ctx context.Context, resourceID string) ([]core.Entry, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(resourceID, ports.DataRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ports.DataRange, err)
	}
	return parseRows(resp.Values), nil
}

// AppendEntry inserts one row at Expenses!A2:C2; existing rows shift down.
func (c *Client) AppendEntry(ctx context.Context, resourceID string, e core.Entry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: [][]interface{}{e.Row()}}
	_, err := c.svc.Spreadsheets.Values.Append(resourceID, ports.AppendRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", ports.AppendRange, err)
	}
	return nil
}

// escapeQuery quotes a value for a Drive query string literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
