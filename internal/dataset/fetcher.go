package dataset

import (
	"context"
	"fmt"

	"github.com/dreamstate/guest-assistant/internal/config"
)

// Fetcher reads the full property table, header row first.
type Fetcher interface {
	Fetch(ctx context.Context) ([][]string, error)
	// Describe identifies the source for logs and cache keys.
	Describe() string
}

// NewFetcher builds the fetcher selected by cfg.Driver. Missing identifiers are
// reported as configuration errors.
func NewFetcher(ctx context.Context, cfg config.SourceConfig) (Fetcher, error) {
	switch cfg.Driver {
	case "sheets":
		return NewSheetsFetcher(ctx, cfg.Sheets)
	case "csv":
		return NewCSVFetcher(cfg.CSV, nil)
	default:
		return nil, fmt.Errorf("unknown dataset source driver %q", cfg.Driver)
	}
}
