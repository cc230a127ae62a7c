// Package web provides fetch_url, which downloads a web page and returns its
// readable text with scripts, styles and markup stripped.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/germanamz/actloop/pkg/tools/toolbox"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Defaults for Config.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 5 << 20
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) actloop/1.0"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Config configures the fetch_url tool.
type Config struct {
	Timeout    time.Duration
	MaxBytes   int64
	HTTPClient *http.Client
}

// Web provides the fetch_url tool.
type Web struct {
	cfg    Config
	client *http.Client
}

// New creates a Web.
func New(cfg Config) *Web {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Web{cfg: cfg, client: client}
}

// Tools returns a ToolBox containing the fetch_url tool.
func (w *Web) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.MustRegister(toolbox.Tool{
		Name:        "fetch_url",
		Description: "Fetch a web page over HTTP(S) and return its text content with markup, scripts and styles removed.",
		Params: []toolbox.Param{
			{Name: "url", Type: toolbox.TypeString, Description: "Absolute http or https URL", Required: true},
		},
		Handler: w.handleFetch,
	})

	return tb
}

type fetchInput struct {
	URL string `json:"url"`
}

func (w *Web) handleFetch(ctx context.Context, input json.RawMessage) (string, error) {
	var in fetchInput
	if err := jsonAPI.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("fetch_url: invalid input: %w", err)
	}

	u, err := url.ParseRequestURI(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("fetch_url: invalid url %q", in.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("fetch_url: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch_url: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch_url: bad status: %s", resp.Status)
	}

	ctype := resp.Header.Get("Content-Type")
	body := io.LimitReader(resp.Body, w.cfg.MaxBytes)

	r, err := charset.NewReader(body, ctype)
	if err != nil {
		r = body
	}

	if strings.HasPrefix(ctype, "text/plain") || strings.HasPrefix(ctype, "application/json") {
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("fetch_url: read body: %w", err)
		}
		return string(b), nil
	}

	if ctype != "" && !strings.Contains(ctype, "html") {
		return "", fmt.Errorf("fetch_url: unsupported content type %s", ctype)
	}

	text, err := extractText(r)
	if err != nil {
		return "", fmt.Errorf("fetch_url: %w", err)
	}
	if text == "" {
		return "(no text content)", nil
	}

	return text, nil
}

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
	"iframe": true, "svg": true, "canvas": true, "template": true,
}

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "footer": true, "nav": true, "br": true, "ul": true,
	"ol": true, "tr": true, "pre": true, "blockquote": true,
}

// extractText tokenizes an HTML document and keeps the visible text, one
// block element per line.
func extractText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)

	var (
		b         strings.Builder
		skipDepth int
	)

	newline := func() {
		s := b.String()
		if s != "" && s[len(s)-1] != '\n' {
			b.WriteByte('\n')
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.TrimSpace(b.String()), nil
			}
			return "", fmt.Errorf("parse html: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if skipTags[tag] && tt == html.StartTagToken {
				skipDepth++
			}
			if blockTags[tag] {
				newline()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if skipTags[tag] && skipDepth > 0 {
				skipDepth--
			}
			if blockTags[tag] {
				newline()
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			fields := strings.Fields(string(z.Text()))
			if len(fields) == 0 {
				continue
			}
			s := b.String()
			if s != "" && s[len(s)-1] != '\n' {
				b.WriteByte(' ')
			}
			b.WriteString(strings.Join(fields, " "))
		}
	}
}
