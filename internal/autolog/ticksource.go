package autolog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// TickSource supplies the latest live snapshot. A nil snapshot with a nil
// error means the feed had nothing new.
type TickSource interface {
	Fetch(ctx context.Context) (*types.TickSnapshot, error)
}

// HTTPTickSource fetches a JSON tick document from a fixed URL.
type HTTPTickSource struct {
	url    string
	client *http.Client
}

// NewHTTPTickSource creates a source with a 10s request timeout.
func NewHTTPTickSource(url string) *HTTPTickSource {
	return &HTTPTickSource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch downloads and decodes the tick document. A snapshot without a
// price is reported as no update.
func (s *HTTPTickSource) Fetch(ctx context.Context) (*types.TickSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tick request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tick fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tick fetch returned status %d", resp.StatusCode)
	}

	var snapshot types.TickSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode tick document: %w", err)
	}
	if snapshot.Price == 0 {
		return nil, nil
	}
	return &snapshot, nil
}
