// Package appveyor provides a client for the AppVeyor REST API.
package appveyor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// APIBaseURL is the base URL for the AppVeyor API.
const APIBaseURL = "https://ci.appveyor.com/api"

// requestTimeout bounds a single metadata query. Artifact downloads use a
// client without an overall timeout since large files legitimately take
// longer than any fixed budget.
const requestTimeout = 10 * time.Second

// Client is an AppVeyor API client.
type Client struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	downloadClient *http.Client
	logger         zerolog.Logger
}

// NewClient creates a new AppVeyor API client authenticating with the
// given account token.
func NewClient(logger zerolog.Logger, token string) *Client {
	return &Client{
		baseURL: APIBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		downloadClient: &http.Client{},
		logger:         logger,
	}
}

// queryAPI issues a GET against endpoint and decodes the JSON body into
// out. Transport-level failures are retried (bounded); HTTP error statuses
// are not.
func (c *Client) queryAPI(ctx context.Context, endpoint string, out any) error {
	url := c.baseURL + endpoint

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("curl", c.curlEquivalent(url)).
		Msg("Querying API")

	resp, err := c.get(ctx, url, "application/json")
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrAPI, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading GET %s response: %v", ErrAPI, endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s returned HTTP %d: %s",
			ErrAPI, endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// AppVeyor responses occasionally carry non-UTF8 bytes (job names with
	// odd encodings); coerce instead of failing the run.
	body = bytes.ToValidUTF8(body, []byte("�"))
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

// Download streams one artifact. The caller owns the returned body.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.get(ctx, url, "")
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrAPI, url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s returned HTTP %d", ErrAPI, url, resp.StatusCode)
	}
	return resp.Body, nil
}

// ArtifactURL is the download endpoint for one artifact of one job.
func (c *Client) ArtifactURL(jobID, fileName string) string {
	return c.baseURL + "/buildjobs/" + jobID + "/artifacts/" + fileName
}

func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	client := c.httpClient
	if accept == "" {
		client = c.downloadClient
	}

	var resp *http.Response
	err := withRetry(retryAttempts, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if accept != "" {
			req.Header.Set("Content-Type", accept)
		}
		resp, err = client.Do(req)
		return err
	}, func(attempt int, err error) {
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("Network error querying AppVeyor, retrying")
	})
	return resp, err
}

// curlEquivalent renders the query as a copy-pasteable shell command for
// debug logs, with the token redacted.
func (c *Client) curlEquivalent(url string) string {
	redacted := strings.Repeat("*", len(c.token))
	return shellescape.QuoteCommand([]string{
		"curl", "-H", "Authorization: Bearer " + redacted, url,
	})
}
