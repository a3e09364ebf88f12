package geometry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
)

// RemoteClient calls the external geometry service over HTTP. It implements
// both Analyzer and Converter. Calls are bounded by the configured timeout
// and retried a bounded number of times on transport or 5xx failures.
type RemoteClient struct {
	cfg  Config
	http *http.Client
}

// NewRemoteClient creates a client for the configured geometry service.
func NewRemoteClient(cfg Config) *RemoteClient {
	return &RemoteClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Analyze sends the file to the analyzer endpoint and decodes the report.
func (c *RemoteClient) Analyze(ctx context.Context, r io.Reader, filename string) (*Analysis, error) {
	body, err := c.call(ctx, "/analyze", r, filename)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeAnalysisFailed))
	}
	defer func() { _ = body.Close() }()

	var analysis Analysis
	if err := json.NewDecoder(body).Decode(&analysis); err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeAnalysisFailed))
	}

	return &analysis, nil
}

// ConvertToSTL sends the file to the conversion endpoint and returns the
// STL bytes. The caller is responsible for closing the returned reader.
func (c *RemoteClient) ConvertToSTL(ctx context.Context, r io.Reader, filename string) (io.ReadCloser, error) {
	body, err := c.call(ctx, "/convert", r, filename)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeConversionFailed))
	}
	return body, nil
}

// call POSTs the file bytes to the given endpoint with bounded retries.
// The payload is buffered once up front so each attempt re-sends the same bytes.
func (c *RemoteClient) call(ctx context.Context, endpoint string, r io.Reader, filename string) (io.ReadCloser, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	target := fmt.Sprintf("%s%s?filename=%s", c.cfg.BaseURL, endpoint, url.QueryEscape(filename))

	var body io.ReadCloser
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(errx.Wrap(err))
			}
			req.Header.Set("Content-Type", "application/octet-stream")

			resp, err := c.http.Do(req)
			if err != nil {
				return errx.Wrap(err)
			}

			if resp.StatusCode >= 500 {
				_ = resp.Body.Close()
				return errx.New(
					"geometry service unavailable",
					errx.WithDetails(errx.D{"status": resp.StatusCode, "endpoint": endpoint}),
				)
			}
			if resp.StatusCode != http.StatusOK {
				_ = resp.Body.Close()
				return retry.Unrecoverable(errx.New(
					"geometry service rejected the file",
					errx.WithDetails(errx.D{"status": resp.StatusCode, "endpoint": endpoint}),
				))
			}

			body = resp.Body
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxRetries),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return body, nil
}
