package dataset

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dreamstate/guest-assistant/internal/config"
	"github.com/dreamstate/guest-assistant/internal/domain"
)

// SheetsFetcher reads a tab of a Google spreadsheet with a service account.
type SheetsFetcher struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsFetcher validates cfg and creates a read-only Sheets client.
func NewSheetsFetcher(ctx context.Context, cfg config.SheetsConfig) (*SheetsFetcher, error) {
	if err := validateSheetsConfig(cfg); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, domain.ConfigurationError("invalid Google service account credentials", err)
	}

	return newSheetsFetcher(service, cfg.SpreadsheetID, cfg.SheetName), nil
}

func newSheetsFetcher(service *sheets.Service, spreadsheetID, sheetName string) *SheetsFetcher {
	return &SheetsFetcher{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

// validateSheetsConfig names every missing setting in one error.
func validateSheetsConfig(cfg config.SheetsConfig) error {
	var missing []string
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		missing = append(missing, "GOOGLE_SHEETS_ID")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		missing = append(missing, "GOOGLE_SHEETS_TAB")
	}
	if cfg.CredentialsJSON == "" && cfg.CredentialsFile == "" {
		missing = append(missing, "GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS")
	}
	if len(missing) > 0 {
		return domain.ConfigurationError("missing dataset source settings: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// Fetch reads every populated cell of the configured tab.
func (f *SheetsFetcher) Fetch(ctx context.Context) ([][]string, error) {
	resp, err := f.service.Spreadsheets.Values.
		Get(f.spreadsheetID, quoteSheetName(f.sheetName)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, domain.UpstreamFetchError("read spreadsheet values", err)
	}
	if len(resp.Values) == 0 {
		return nil, domain.UpstreamFetchError(fmt.Sprintf("sheet %q returned no rows", f.sheetName), nil)
	}
	return stringifyValues(resp.Values), nil
}

// Describe implements Fetcher.
func (f *SheetsFetcher) Describe() string {
	return "sheets:" + f.spreadsheetID + ":" + f.sheetName
}

func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// stringifyValues converts the API's loosely typed cells to strings; nil cells become "".
func stringifyValues(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch cell := v.(type) {
			case nil:
			case string:
				cells[j] = cell
			default:
				cells[j] = fmt.Sprint(cell)
			}
		}
		out[i] = cells
	}
	return out
}
