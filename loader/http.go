package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giygas/pharmacie/entities"
	"github.com/giygas/pharmacie/interfaces"
	"github.com/giygas/pharmacie/logging"
)

var _ interfaces.Loader = (*HTTPLoader)(nil)

// maxDownloadSize caps a catalogue download
const maxDownloadSize = 100 * 1024 * 1024

// HTTPLoader downloads the catalogue from a URL
type HTTPLoader struct {
	url    string
	format Format
	client *http.Client
}

func NewHTTPLoader(url string) *HTTPLoader {
	return &HTTPLoader{
		url:    url,
		format: FormatFromName(url),
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (l *HTTPLoader) Source() string {
	return l.url
}

func (l *HTTPLoader) Load(ctx context.Context) ([]entities.Medicament, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", l.url, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", l.url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: unexpected status %d", l.url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("download from %s exceeds %d bytes", l.url, maxDownloadSize)
	}

	logging.Debug("Catalogue downloaded", "url", l.url, "bytes", len(data))

	return Decode(data, l.format)
}
