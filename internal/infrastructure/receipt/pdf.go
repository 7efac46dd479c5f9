package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/salesdesk/backend/internal/domain/shared"
	infraconfig "github.com/salesdesk/backend/internal/infrastructure/config"
)

const (
	defaultRenderTimeout = 30 * time.Second
	defaultScale         = 1.0

	// A4 paper in millimeters.
	pageWidthMM  = 210
	pageHeightMM = 297
	pageMarginMM = 12
)

// PDFRenderer converts receipt HTML into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
	// Close releases any resources held by the renderer.
	Close() error
}

// ChromedpRenderer renders receipts to PDF through the Chrome DevTools
// Protocol. It keeps a browser allocator alive across calls; the browser
// itself is launched lazily on the first render.
type ChromedpRenderer struct {
	timeout   time.Duration
	scale     float64
	remoteURL string
	noSandbox bool
	logger    *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// ChromedpOption configures the renderer.
type ChromedpOption func(*ChromedpRenderer)

// WithChromeLogger sets the logger used for render diagnostics.
func WithChromeLogger(logger *zap.Logger) ChromedpOption {
	return func(r *ChromedpRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNoSandbox disables the Chrome sandbox, required when the browser runs
// as root inside a container.
func WithNoSandbox() ChromedpOption {
	return func(r *ChromedpRenderer) {
		r.noSandbox = true
	}
}

// NewChromedpRenderer creates a PDF renderer for the configured receipt
// settings. When cfg.ChromeURL is set the renderer attaches to that remote
// Chrome instance instead of launching a local browser.
func NewChromedpRenderer(cfg infraconfig.ReceiptConfig, opts ...ChromedpOption) (*ChromedpRenderer, error) {
	r := &ChromedpRenderer{
		timeout:   cfg.RenderTimeout,
		scale:     defaultScale,
		remoteURL: cfg.ChromeURL,
		logger:    zap.NewNop(),
	}
	if r.timeout == 0 {
		r.timeout = defaultRenderTimeout
	}

	for _, opt := range opts {
		opt(r)
	}

	r.initAllocator()
	return r, nil
}

func (r *ChromedpRenderer) initAllocator() {
	if r.remoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.remoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.noSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// RenderPDF prints the given HTML document to an A4 PDF.
func (r *ChromedpRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, shared.NewApplication("receipt HTML is empty")
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	doc := completeHTML(html)

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(mmToInches(pageWidthMM)).
				WithPaperHeight(mmToInches(pageHeightMM)).
				WithMarginTop(mmToInches(pageMarginMM)).
				WithMarginRight(mmToInches(pageMarginMM)).
				WithMarginBottom(mmToInches(pageMarginMM)).
				WithMarginLeft(mmToInches(pageMarginMM)).
				WithScale(r.scale).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, shared.Wrap(shared.KindApplication, "receipt PDF rendering timed out", err).
				WithMeta("timeout", r.timeout.String())
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, shared.Wrap(shared.KindApplication, "failed to render receipt PDF", err)
	}
	if len(pdf) == 0 {
		return nil, shared.NewApplication("rendered PDF is empty")
	}

	r.logger.Debug("receipt PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))

	return pdf, nil
}

// Close releases the browser allocator.
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// DisabledPDFRenderer stands in when PDF rendering is turned off. Every
// render reports the feature as unavailable.
type DisabledPDFRenderer struct{}

// RenderPDF always fails with a not-found error.
func (DisabledPDFRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	return nil, shared.NewNotFound("Receipt PDF rendering is not enabled")
}

// Close is a no-op.
func (DisabledPDFRenderer) Close() error { return nil }

// completeHTML wraps an HTML fragment into a full document; content that
// already carries a doctype or <html> tag passes through untouched.
func completeHTML(content string) string {
	lower := strings.ToLower(content)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return content
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html><html><head>")
	buf.WriteString("<meta charset=\"UTF-8\">")
	buf.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">")
	buf.WriteString("</head><body>")
	buf.WriteString(content)
	buf.WriteString("</body></html>")
	return buf.String()
}

// mmToInches converts millimeters to inches; Chrome's print API speaks
// inches.
func mmToInches(mm float64) float64 {
	return mm / 25.4
}

var (
	_ PDFRenderer = (*ChromedpRenderer)(nil)
	_ PDFRenderer = DisabledPDFRenderer{}
)
