// Package google mirrors activities to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fincontrol/internal/core"
	ports "fincontrol/internal/sheets"
)

// Row layout on the mirror sheet. Column A holds the activity ID so rows can
// be found again for updates and deletes.
const dateLayout = "02/01/2006"

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.ActivityMirror = (*Client)(nil)

// New creates a Sheets client from service-account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Activities"
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// UpsertActivity writes the activity to its row, appending a new row when the
// ID is not on the sheet yet.
func (c *Client) UpsertActivity(ctx context.Context, a core.Activity) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	values := [][]any{{
		a.ID,
		a.Date.Format(dateLayout),
		a.Description,
		string(a.Kind),
		string(a.Category),
		a.Value.InexactFloat64(),
	}}

	row, err := c.findRow(ctx, a.ID)
	if err != nil {
		return "", err
	}
	if row == 0 {
		// Append after the last occupied row
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID,
			fmt.Sprintf("%s!A:A", c.sheetName)).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("get sheet dimensions for %s: %w", c.sheetName, err)
		}
		row = len(resp.Values) + 1
	}

	rng := fmt.Sprintf("%s!A%d:F%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng,
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update row in sheet %s: %w", c.sheetName, err)
	}

	return rng, nil
}

// DeleteActivity clears the row holding the activity. A missing ID is not an
// error; the mirror is already in the desired state.
func (c *Client) DeleteActivity(ctx context.Context, activityID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, activityID)
	if err != nil {
		return err
	}
	if row == 0 {
		slog.InfoContext(ctx, "Activity not on mirror sheet, nothing to delete",
			"activity_id", activityID)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:F%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng,
		&gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row in sheet %s: %w", c.sheetName, err)
	}

	return nil
}

// findRow returns the 1-based row holding the activity ID, or 0 when absent.
func (c *Client) findRow(ctx context.Context, activityID string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == activityID {
			return i + 1, nil
		}
	}
	return 0, nil
}
