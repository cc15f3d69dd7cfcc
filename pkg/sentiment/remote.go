package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var ErrUnexpectedStatus = fmt.Errorf("sentiment service returned unexpected status")

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Score *int `json:"score"`
}

// Remote asks an external sentiment service for scores:
// POST {baseURL}/analyze {"text": "..."} -> {"score": n}.
type Remote struct {
	endpoint string
	client   *http.Client
}

// NewRemote returns a Remote scorer for the service at baseURL.
func NewRemote(baseURL string, timeout time.Duration) (*Remote, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sentiment service URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid sentiment service URL %q: scheme and host required", baseURL)
	}

	return &Remote{
		endpoint: u.JoinPath("analyze").String(),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Score implements Scorer.
func (r *Remote) Score(ctx context.Context, text string) (int, error) {
	b, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(b))
	if err != nil {
		return 0, fmt.Errorf("error creating request to sentiment service: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error calling sentiment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var res analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return 0, fmt.Errorf("error decoding response from sentiment service: %w", err)
	}
	if res.Score == nil {
		return 0, fmt.Errorf("error decoding response from sentiment service: missing score")
	}

	return *res.Score, nil
}
