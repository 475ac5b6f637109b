package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Fetcher{APIKey: "k", BaseURL: srv.URL, HTTP: srv.Client()}
}

func TestNormalizeURL(t *testing.T) {
	f := &Fetcher{BaseURL: "https://abc123.api.example.com/"}

	got := f.NormalizeURL("https://api.example.com/whatsapp/1/media/f1")
	assert.Equal(t, "https://abc123.api.example.com/whatsapp/1/media/f1", got)

	// URLs without the path marker pass through untouched
	assert.Equal(t, "https://other.example.com/x", f.NormalizeURL("https://other.example.com/x"))
	assert.Equal(t, "", f.NormalizeURL(""))
}

func TestDownloadFilenameAndExtension(t *testing.T) {
	var gotAuth string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	})

	data, filename, ok := f.Download(context.Background(), f.BaseURL+"/whatsapp/1/media/f1", "ordonnance")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4"), data)
	assert.Equal(t, "ordonnance.pdf", filename)
	assert.Equal(t, "App k", gotAuth)
}

func TestDownloadKeepsExistingExtension(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegdata"))
	})

	_, filename, ok := f.Download(context.Background(), f.BaseURL+"/whatsapp/1/media/f1", "photo.JPG")
	require.True(t, ok)
	assert.Equal(t, "photo.JPG", filename)
}

func TestDownloadFilenameFromURL(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pngdata"))
	})

	_, filename, ok := f.Download(context.Background(), f.BaseURL+"/whatsapp/1/media/f42", "")
	require.True(t, ok)
	assert.Equal(t, "f42.png", filename)
}

func TestDownloadBadStatus(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	data, _, ok := f.Download(context.Background(), f.BaseURL+"/whatsapp/1/media/gone", "")
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestDownloadEmptyURL(t *testing.T) {
	f := &Fetcher{APIKey: "k", HTTP: http.DefaultClient}
	_, _, ok := f.Download(context.Background(), "", "")
	assert.False(t, ok)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".png", extensionFor("image/png; charset=binary"))
	assert.Equal(t, ".pdf", extensionFor("application/pdf"))
	assert.Equal(t, ".gif", extensionFor("image/gif"))
	assert.Equal(t, "", extensionFor("application/octet-stream"))
}
