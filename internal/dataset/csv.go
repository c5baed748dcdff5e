package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dreamstate/guest-assistant/internal/config"
	"github.com/dreamstate/guest-assistant/internal/domain"
)

// CSVFetcher reads the property table from a published CSV export or a local file.
type CSVFetcher struct {
	url        string
	path       string
	httpClient *http.Client
}

// NewCSVFetcher validates cfg. A nil httpClient gets a 30s-timeout default.
func NewCSVFetcher(cfg config.CSVConfig, httpClient *http.Client) (*CSVFetcher, error) {
	if cfg.URL == "" && cfg.Path == "" {
		return nil, domain.ConfigurationError("missing dataset source settings: DATASET_CSV_URL or DATASET_CSV_PATH", nil)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &CSVFetcher{url: cfg.URL, path: cfg.Path, httpClient: httpClient}, nil
}

// Fetch implements Fetcher.
func (f *CSVFetcher) Fetch(ctx context.Context) ([][]string, error) {
	if f.url != "" {
		return f.fetchURL(ctx)
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, domain.UpstreamFetchError("open csv file", err)
	}
	defer file.Close()

	return parseCSV(file)
}

// Describe implements Fetcher.
func (f *CSVFetcher) Describe() string {
	if f.url != "" {
		return "csv:" + f.url
	}
	return "csv:" + f.path
}

func (f *CSVFetcher) fetchURL(ctx context.Context) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, domain.ConfigurationError("invalid DATASET_CSV_URL", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, domain.UpstreamFetchError("download csv", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.UpstreamFetchError(fmt.Sprintf("csv source returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	return parseCSV(resp.Body)
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.UpstreamFetchError("parse csv", err)
	}
	if len(records) == 0 {
		return nil, domain.UpstreamFetchError("csv source is empty", nil)
	}
	return records, nil
}
