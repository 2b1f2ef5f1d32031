// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/taibuivan/aihub/internal/core/catalog/catalogtest"
	"github.com/taibuivan/aihub/internal/core/media"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image-payload")

type observed struct {
	mu      sync.Mutex
	results map[string][]bool
}

func (o *observed) ObserveMedia(source string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[string][]bool{}
	}
	o.results[source] = append(o.results[source], ok)
}

func newAcquirer(store *catalogtest.Store, observer media.Observer, proxies []media.Proxy) *media.Acquirer {
	if proxies == nil {
		proxies = []media.Proxy{}
	}
	return media.NewAcquirer(store, media.Options{
		AttemptTimeout: 2 * time.Second,
		MaxBytes:       1024,
		Proxies:        proxies,
		Observer:       observer,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func servePNG(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Content-Type", "image/png")
	_, _ = writer.Write(pngBytes)
}

/*
TestAcquire_Candidate stores the supplied image.
*/
func TestAcquire_Candidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(servePNG))
	defer server.Close()

	store := catalogtest.New()
	observer := &observed{}
	acquirer := newAcquirer(store, observer, nil)

	asset, err := acquirer.Acquire(context.Background(), media.Request{
		ToolID:       7,
		Kind:         media.KindLogo,
		CandidateURL: server.URL + "/img/logo.png?v=2",
	})
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, "image/png", asset.ContentType)
	assert.Equal(t, "logo.png", asset.FileName)
	assert.Equal(t, int64(7), asset.ToolID)
	assert.Equal(t, pngBytes, asset.Content)
	assert.Len(t, store.Assets(), 1)
	assert.Equal(t, []bool{true}, observer.results[media.SourceCandidate])
}

/*
TestAcquire_Rejections covers non-image content and oversized bodies.
*/
func TestAcquire_Rejections(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = writer.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/huge.png", func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "image/png")
		_, _ = writer.Write([]byte(strings.Repeat("x", 4096)))
	})
	mux.HandleFunc("/missing.png", http.NotFound)
	server := httptest.NewServer(mux)
	defer server.Close()

	tests := []struct {
		name   string
		path   string
		target error
	}{
		{"not_an_image", "/page", media.ErrNotImage},
		{"too_large", "/huge.png", media.ErrTooLarge},
		{"missing", "/missing.png", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := catalogtest.New()
			acquirer := newAcquirer(store, nil, nil)

			asset, err := acquirer.Acquire(context.Background(), media.Request{
				Kind:         media.KindOverview,
				CandidateURL: server.URL + tt.path,
			})
			require.Error(t, err)
			assert.Nil(t, asset)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Empty(t, store.Assets())
		})
	}
}

/*
TestAcquire_NothingToDo returns no asset and no error without any source.
*/
func TestAcquire_NothingToDo(t *testing.T) {
	acquirer := newAcquirer(catalogtest.New(), nil, nil)

	asset, err := acquirer.Acquire(context.Background(), media.Request{Kind: media.KindLogo})
	assert.NoError(t, err)
	assert.Nil(t, asset)
}

/*
TestDiscover_Chain walks the discovery order against a fake site.
*/
func TestDiscover_Chain(t *testing.T) {
	t.Run("standard_favicon", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/favicon.ico", func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "image/x-icon")
			_, _ = writer.Write(pngBytes)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		found, source, err := newAcquirer(catalogtest.New(), nil, nil).Discover(context.Background(), server.URL+"/product")
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/favicon.ico", found)
		assert.Equal(t, media.SourceFavicon, source)
	})

	t.Run("page_markup", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/" {
				http.NotFound(writer, request)
				return
			}
			writer.Header().Set("Content-Type", "text/html")
			_, _ = writer.Write([]byte(`<html><head><link rel="icon" href="/static/icon.png"></head></html>`))
		})
		mux.HandleFunc("/static/icon.png", servePNG)
		server := httptest.NewServer(mux)
		defer server.Close()

		store := catalogtest.New()
		acquirer := newAcquirer(store, nil, nil)

		asset, err := acquirer.Acquire(context.Background(), media.Request{
			ToolID:  3,
			Kind:    media.KindLogo,
			SiteURL: server.URL,
		})
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, server.URL+"/static/icon.png", asset.SourceURL)
	})

	t.Run("refused_download_resumes", func(t *testing.T) {
		mux := http.NewServeMux()
		// HEAD carries no content type; the body turns out to be markup
		mux.HandleFunc("/favicon.ico", func(writer http.ResponseWriter, request *http.Request) {
			if request.Method == http.MethodHead {
				writer.Header()["Content-Type"] = nil
				writer.WriteHeader(http.StatusOK)
				return
			}
			writer.Header().Set("Content-Type", "text/html")
			_, _ = writer.Write([]byte("<html>soft 404</html>"))
		})
		mux.HandleFunc("/favicon.png", servePNG)
		server := httptest.NewServer(mux)
		defer server.Close()

		store := catalogtest.New()
		observer := &observed{}
		acquirer := newAcquirer(store, observer, nil)

		asset, err := acquirer.Acquire(context.Background(), media.Request{
			ToolID:  4,
			Kind:    media.KindLogo,
			SiteURL: server.URL,
		})
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, server.URL+"/favicon.png", asset.SourceURL)
		assert.Len(t, store.Assets(), 1)
		assert.Equal(t, []bool{false}, observer.results[media.SourceFavicon])
		assert.Equal(t, []bool{true}, observer.results[media.SourceConventional])
	})

	t.Run("proxy_fallback", func(t *testing.T) {
		site := httptest.NewServer(http.NotFoundHandler())
		defer site.Close()

		proxy := httptest.NewServer(http.HandlerFunc(servePNG))
		defer proxy.Close()

		observer := &observed{}
		acquirer := newAcquirer(catalogtest.New(), observer, []media.Proxy{
			{Name: "stub", Template: proxy.URL + "/icons?domain={domain}"},
		})

		found, source, err := acquirer.Discover(context.Background(), site.URL)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(found, proxy.URL+"/icons?domain="))
		assert.Equal(t, "proxy_stub", source)
		assert.Equal(t, []bool{true}, observer.results["proxy_stub"])
	})

	t.Run("nothing_found", func(t *testing.T) {
		site := httptest.NewServer(http.NotFoundHandler())
		defer site.Close()

		_, _, err := newAcquirer(catalogtest.New(), nil, nil).Discover(context.Background(), site.URL)
		assert.ErrorIs(t, err, media.ErrNoImage)
	})
}

/*
TestExtractIcons checks ordering, resolution and deduplication.
*/
func TestExtractIcons(t *testing.T) {
	page := `<html><head>
		<meta property="og:image" content="https://cdn.example.com/og.jpg">
		<link rel="apple-touch-icon" href="/touch.png">
		<link rel="shortcut icon" href="favicon-32.png">
		<link rel="icon" href="/favicon-32.png">
		<link rel="stylesheet" href="/site.css">
	</head></html>`

	document, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)

	base, err := url.Parse("https://tool.example.com/")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://tool.example.com/favicon-32.png",
		"https://tool.example.com/touch.png",
		"https://cdn.example.com/og.jpg",
	}, media.ExtractIcons(document, base))
}

/*
TestFileName derives names from the URL or the content type.
*/
func TestFileName(t *testing.T) {
	at := time.Unix(1700000000, 0)

	tests := []struct {
		name        string
		url         string
		contentType string
		kind        string
		want        string
	}{
		{"url_has_extension", "https://x.example/a/logo.png?v=1", "image/png", media.KindLogo, "logo.png"},
		{"no_extension", "https://x.example/icon", "image/webp", media.KindLogo, "logo_1700000000.webp"},
		{"root_path", "https://x.example/", "image/jpeg", media.KindOverview, "overview_1700000000.jpg"},
		{"unknown_type", "https://x.example/img", "image/bmp", media.KindOverview, "overview_1700000000.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, media.FileName(tt.url, tt.contentType, tt.kind, at))
		})
	}
}
