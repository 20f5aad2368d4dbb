package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"buraq/internal/core"
	ports "buraq/internal/sheets"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Options selects the worksheet and the service account used to read it.
// SpreadsheetID wins over SpreadsheetTitle; the title is resolved through
// the Drive API, which needs the spreadsheet shared with the service account.
type Options struct {
	SpreadsheetID    string
	SpreadsheetTitle string
	Worksheet        string

	// Inline service account JSON, or a path to it. When both are empty
	// GOOGLE_APPLICATION_CREDENTIALS is consulted.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	title         string
	worksheet     string
}

// Ensure interface conformance
var (
	_ ports.TableFetcher = (*Client)(nil)
	_ ports.SourceNamer  = (*Client)(nil)
)

// New creates a read-only Sheets client and resolves the spreadsheet ID.
func New(ctx context.Context, opts Options) (*Client, error) {
	worksheet := strings.TrimSpace(opts.Worksheet)
	if worksheet == "" {
		return nil, errors.New("missing worksheet name")
	}
	id := strings.TrimSpace(opts.SpreadsheetID)
	title := strings.TrimSpace(opts.SpreadsheetTitle)
	if id == "" && title == "" {
		return nil, errors.New("missing spreadsheet (set GOOGLE_SPREADSHEET_ID or GOOGLE_SPREADSHEET_TITLE)")
	}

	creds, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	if id == "" {
		id, err = resolveByTitle(ctx, creds, title)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Resolved spreadsheet by title", "title", title, "spreadsheet_id", id)
	}

	return &Client{svc: svc, spreadsheetID: id, title: title, worksheet: worksheet}, nil
}

// loadCredentials returns the service account key from inline JSON, a file,
// or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		slog.InfoContext(ctx, "Checking GOOGLE_APPLICATION_CREDENTIALS", "path", file)
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// resolveByTitle finds the spreadsheet the service account can see under
// the given title. More than one match is an error rather than a guess.
func resolveByTitle(ctx context.Context, creds []byte, title string) (string, error) {
	drv, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gdrive.DriveMetadataReadonlyScope))
	if err != nil {
		return "", fmt.Errorf("create drive service: %w", err)
	}
	resp, err := drv.Files.List().
		Q(titleQuery(title)).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("search spreadsheet %q: %w", title, err)
	}
	switch len(resp.Files) {
	case 0:
		return "", fmt.Errorf("spreadsheet %q not found or not shared with the service account", title)
	case 1:
		return resp.Files[0].Id, nil
	default:
		return "", fmt.Errorf("spreadsheet title %q is ambiguous: %d matches", title, len(resp.Files))
	}
}

// titleQuery builds a Drive search expression matching a spreadsheet by
// exact name.
func titleQuery(title string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(title)
	return fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escaped, spreadsheetMimeType)
}

// a1Sheet quotes a worksheet title for use as an A1 range covering the
// whole sheet.
func a1Sheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// FetchTable reads every populated cell of the worksheet as displayed text.
func (c *Client) FetchTable(ctx context.Context) (core.RawTable, error) {
	if c.svc == nil {
		return core.RawTable{}, errors.New("sheets service not initialized")
	}
	rng := a1Sheet(c.worksheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return core.RawTable{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseValues(resp.Values), nil
}

// SourceName identifies the worksheet in logs and load reports.
func (c *Client) SourceName() string {
	name := c.title
	if name == "" {
		name = c.spreadsheetID
	}
	return "sheets:" + name + "/" + c.worksheet
}
