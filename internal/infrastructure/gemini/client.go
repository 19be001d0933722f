package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/platelens/backend/internal/domain"
	"github.com/platelens/backend/internal/logger"
	"golang.org/x/time/rate"
)

// Client calls the Gemini generateContent REST API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
}

// Options configures a Client
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	RequestsPerMin int
}

// NewClient creates a new Gemini API client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	perMin := opts.RequestsPerMin
	if perMin <= 0 {
		perMin = 60
	}
	// rate.Limit is requests per second; allow short bursts up to a tenth of the minute budget
	burst := perMin / 10
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMin)/60.0), burst)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		model:       opts.Model,
		rateLimiter: limiter,
	}
}

// GenerateContent sends prompt (and image, when non-nil) to the model and
// returns the reply text. It never retries.
func (c *Client) GenerateContent(ctx context.Context, prompt string, image *domain.Image) (string, error) {
	log := logger.WithComponent("gemini").WithField("model", c.model)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(buildRequest(prompt, image))
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("User-Agent", "PlateLens/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("generateContent request failed")
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	log = log.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
		"image":    image != nil,
	})

	if resp.StatusCode != http.StatusOK {
		log.Warn("generateContent returned error status")
		return "", apiError(resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text, err := extractText(&genResp)
	if err != nil {
		log.WithError(err).Warn("generateContent returned no usable text")
		return "", err
	}

	log.Debug("generateContent succeeded")
	return text, nil
}

// apiError turns a non-200 reply into an error carrying the API message
func apiError(status int, body []byte) error {
	var envelope apiErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return fmt.Errorf("status %d (%s): %s", status, envelope.Error.Status, envelope.Error.Message)
	}
	return fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body)))
}
