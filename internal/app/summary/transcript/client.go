// Package transcript talks to the remote summarization service.
package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"allat.local/internal/app/summary"
	"allat.local/internal/platform/metrics"
	tracex "allat.local/internal/platform/trace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://aint-server.onrender.com"

	captionsField = "resumed_captions"
	maxBodyBytes  = 4 << 20
)

// Response is the body returned by GET /transcript.
type Response struct {
	ResumedCaptions []string `json:"resumed_captions"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration // 0 means no client-level timeout
	// HTTPClient overrides the default traced client, mostly for tests.
	HTTPClient *http.Client
}

// Client implements summary.Summarizer over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("transcript: invalid base url %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		}
	}
	return &Client{baseURL: base, http: hc}, nil
}

// Summarize issues exactly one GET {base}/transcript?id={id}. Failures wrap
// summary.ErrFetch, or summary.ErrMalformedResponse when the body is JSON but
// does not carry a list of strings under resumed_captions.
func (c *Client) Summarize(ctx context.Context, id summary.VideoID) ([]string, error) {
	ctx, span := otel.Tracer(tracex.TracerTranscript).Start(ctx, "transcript.Summarize",
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attribute.String(tracex.VideoID, id.String())))
	defer span.End()

	start := time.Now()
	segments, err := c.summarize(ctx, id)

	outcome := string(summary.KindOf(err))
	if err == nil {
		outcome = "ok"
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.UpstreamRequestDurationSeconds.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String(tracex.Outcome, outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		slog.WarnContext(ctx, "summarize failed", "video_id", id.String(), "err", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(tracex.SegmentCount, len(segments)))
	slog.DebugContext(ctx, "summarize ok", "video_id", id.String(), "segments", len(segments))
	return segments, nil
}

func (c *Client) summarize(ctx context.Context, id summary.VideoID) ([]string, error) {
	endpoint := c.baseURL + "/transcript?" + url.Values{"id": {id.String()}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", summary.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %w", summary.ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", summary.ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", summary.ErrFetch, resp.StatusCode)
	}
	return DecodeCaptions(body)
}

// DecodeCaptions checks body against the expected shape. A body that is not
// JSON at all is a fetch failure; JSON of the wrong shape is malformed.
func DecodeCaptions(body []byte) ([]string, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not json", summary.ErrFetch)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: response is not an object", summary.ErrMalformedResponse)
	}
	raw, ok := fields[captionsField]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: missing %s", summary.ErrMalformedResponse, captionsField)
	}

	var segments []string
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, fmt.Errorf("%w: %s is not a list of strings", summary.ErrMalformedResponse, captionsField)
	}
	if segments == nil {
		segments = []string{}
	}
	return segments, nil
}
