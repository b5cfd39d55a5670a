package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/set-night/bountyhub/internal/config"
)

// LinkPreview is what a platform's landing page says about itself.
type LinkPreview struct {
	Title       string
	Description string
	ImageURL    string
}

// LinkPreviewer reads OpenGraph and basic HTML metadata from a page.
type LinkPreviewer struct {
	httpClient *http.Client
}

func NewLinkPreviewer(client *http.Client) *LinkPreviewer {
	if client == nil {
		client = &http.Client{Timeout: config.PreviewTimeout}
	}
	return &LinkPreviewer{httpClient: client}
}

func (p *LinkPreviewer) Fetch(ctx context.Context, pageURL string) (*LinkPreview, error) {
	base, err := url.Parse(pageURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("invalid preview url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; BountyHubPreview/1.0)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, config.PreviewMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	preview := &LinkPreview{
		Title:       firstNonEmpty(metaContent(doc, "og:title"), strings.TrimSpace(doc.Find("title").First().Text())),
		Description: firstNonEmpty(metaContent(doc, "og:description"), metaContent(doc, "description")),
	}
	if img := metaContent(doc, "og:image"); img != "" {
		if ref, err := url.Parse(img); err == nil {
			preview.ImageURL = base.ResolveReference(ref).String()
		}
	}
	return preview, nil
}

// metaContent looks a meta tag up by property first, then by name.
func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, key)).First()
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, key)).First()
	}
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
