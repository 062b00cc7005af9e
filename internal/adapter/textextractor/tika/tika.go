// Package tika renders résumé documents to text through an Apache Tika server.
//
// Documents are sent to PUT /tika with Accept: text/html. Tika answers with
// XHTML where each PDF page is a <div class="page"> and each paragraph a <p>,
// which keeps page order and line structure intact. OCR for scanned PDFs is
// requested per call through the X-Tika-PDFOcrStrategy header.
// See: https://tika.apache.org/server/ for API details.
package tika

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
	"github.com/fairyhunter13/ai-interview-engine/pkg/textx"
)

const defaultBaseURL = "http://localhost:9998"

// Client is a minimal Apache Tika HTTP client implementing domain.DocumentRenderer.
type Client struct {
	baseURL     string
	ocrLanguage string
	httpClient  *http.Client
	newBackoff  func() backoff.BackOff
}

var _ domain.DocumentRenderer = (*Client)(nil)

// New constructs a Tika client from configuration.
func New(cfg config.Config) *Client {
	timeout := cfg.TikaTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxElapsed, initial, maxInterval, mult := cfg.GetTikaBackoffConfig()
	return &Client{
		baseURL:     strings.TrimRight(cfg.TikaURL, "/"),
		ocrLanguage: cfg.OCRLanguage,
		httpClient:  &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		newBackoff: func() backoff.BackOff {
			expo := backoff.NewExponentialBackOff()
			expo.InitialInterval = initial
			expo.MaxInterval = maxInterval
			expo.MaxElapsedTime = maxElapsed
			expo.Multiplier = mult
			return expo
		},
	}
}

func (c *Client) url(path string) string {
	u := c.baseURL
	if u == "" {
		u = defaultBaseURL
	}
	return u + path
}

// Render extracts the document's text blocks. Server errors and network
// failures are retried with exponential backoff; 4xx answers are not.
func (c *Client) Render(ctx context.Context, data []byte, mediaType string, ocr domain.OCRMode) (domain.RenderedDocument, error) {
	lg := obsctx.LoggerFromContext(ctx)
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url("/tika"), bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "text/html")
		if mediaType != "" {
			req.Header.Set("Content-Type", mediaType)
		}
		switch ocr {
		case domain.OCROnly:
			req.Header.Set("X-Tika-PDFOcrStrategy", "ocr_only")
			if c.ocrLanguage != "" {
				req.Header.Set("X-Tika-OCRLanguage", c.ocrLanguage)
			}
		default:
			req.Header.Set("X-Tika-PDFOcrStrategy", "no_ocr")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			lg.Warn("tika request failed", slog.Any("error", err))
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode >= 500:
			lg.Warn("tika server error", slog.Int("status", resp.StatusCode), slog.String("body", textx.Truncate(string(b), 200)))
			return fmt.Errorf("tika status %d", resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("tika status %d", resp.StatusCode))
		}
		body = b
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(c.newBackoff(), ctx)); err != nil {
		return domain.RenderedDocument{}, fmt.Errorf("op=tika.Render: %w", err)
	}
	return parseXHTML(body)
}

// parseXHTML pulls page and paragraph text out of Tika's XHTML rendering.
func parseXHTML(b []byte) (domain.RenderedDocument, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return domain.RenderedDocument{}, fmt.Errorf("op=tika.parseXHTML: %w", err)
	}
	doc.Find("head, script, style").Remove()

	var out domain.RenderedDocument
	doc.Find("div.page").Each(func(_ int, page *goquery.Selection) {
		out.Pages = append(out.Pages, blockText(page))
	})
	doc.Find("body p").Each(func(_ int, p *goquery.Selection) {
		if t := textx.NormalizeLines(p.Text()); t != "" {
			out.Paragraphs = append(out.Paragraphs, t)
		}
	})
	if len(out.Pages) == 0 && len(out.Paragraphs) == 0 {
		if t := textx.NormalizeLines(doc.Find("body").Text()); t != "" {
			out.Paragraphs = []string{t}
		}
	}
	return out, nil
}

// blockText joins the paragraphs of a page with newlines, falling back to the
// page's raw text when it has none.
func blockText(s *goquery.Selection) string {
	var lines []string
	s.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := textx.NormalizeLines(p.Text()); t != "" {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		return textx.NormalizeLines(s.Text())
	}
	return strings.Join(lines, "\n")
}

// Version reports the Tika server version; used by readiness checks.
func (c *Client) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/version"), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New("tika status " + http.StatusText(resp.StatusCode))
	}
	return strings.TrimSpace(string(b)), nil
}
