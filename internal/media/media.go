package media

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"casebridge/internal/observability"
)

const fallbackFilename = "whatsapp-file"

// Fetcher downloads media payloads from the messaging provider. Any failure
// degrades to "no payload": the caller skips the attachment and keeps
// processing the event batch.
type Fetcher struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NormalizeURL rewrites provider media URLs onto the account's dedicated host.
// The provider tends to hand out generic api-host URLs; only the /whatsapp...
// path suffix is kept.
func (f *Fetcher) NormalizeURL(raw string) string {
	if raw == "" {
		return raw
	}
	const marker = "/whatsapp"
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return raw
	}
	return strings.TrimRight(f.BaseURL, "/") + raw[idx:]
}

// Download fetches the media bytes and picks a filename: the suggested name
// wins, else the URL's last path segment, else a fixed fallback. The extension
// inferred from the response content type is appended when missing.
func (f *Fetcher) Download(ctx context.Context, rawURL, suggestedName string) ([]byte, string, bool) {
	if rawURL == "" {
		return nil, "", false
	}

	finalURL := f.NormalizeURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		slog.Warn("media request build failed", "url", finalURL, "err", err)
		observability.MediaDownloads.WithLabelValues("error").Inc()
		return nil, "", false
	}
	req.Header.Set("Authorization", "App "+f.APIKey)
	req.Header.Set("Accept", "*/*")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		slog.Warn("media download failed", "url", finalURL, "err", err)
		observability.MediaDownloads.WithLabelValues("error").Inc()
		return nil, "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("media download bad status", "url", finalURL, "status", resp.StatusCode)
		observability.MediaDownloads.WithLabelValues("error").Inc()
		return nil, "", false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("media read failed", "url", finalURL, "err", err)
		observability.MediaDownloads.WithLabelValues("error").Inc()
		return nil, "", false
	}

	ext := extensionFor(resp.Header.Get("Content-Type"))

	filename := suggestedName
	if filename == "" {
		filename = lastPathSegment(finalURL)
	}
	if filename == "" {
		filename = fallbackFilename
	}
	if ext != "" && !strings.HasSuffix(strings.ToLower(filename), ext) {
		filename += ext
	}

	observability.MediaDownloads.WithLabelValues("ok").Inc()
	return data, filename, true
}

func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpg"
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "pdf"):
		return ".pdf"
	case strings.Contains(ct, "gif"):
		return ".gif"
	default:
		return ""
	}
}

func lastPathSegment(u string) string {
	trimmed := strings.TrimRight(u, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}
