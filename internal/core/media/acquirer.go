// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media downloads tool images and stores them as catalog assets.

# Acquisition

A record arrives with an optional image URL and an optional product site.
The candidate URL is tried first. Logos without a usable candidate fall back
to favicon discovery on the product site (see [Acquirer.Discover]).

Every network attempt is bounded by its own timeout, and the caller bounds
the whole acquisition through the context. Failures are returned as errors
that the import pipeline reports as warnings.
*/
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/taibuivan/aihub/internal/core/catalog"
)

// Kinds of media a record carries.
const (
	KindLogo     = "logo"
	KindOverview = "overview"
)

// Sources reported to the [Observer].
const (
	SourceCandidate    = "candidate"
	SourceFavicon      = "favicon"
	SourceHTML         = "html"
	SourceConventional = "conventional"
)

var (
	// ErrNotImage is returned when a URL does not serve image content.
	ErrNotImage = errors.New("media: content is not an image")

	// ErrTooLarge is returned when the image exceeds the configured size.
	ErrTooLarge = errors.New("media: image exceeds size limit")

	// ErrNoImage is returned when favicon discovery finds nothing.
	ErrNoImage = errors.New("media: no image found")

	// errStore marks a failure to persist a downloaded image.
	errStore = errors.New("media: store")
)

// Observer receives the outcome of each attempt.
type Observer interface {
	ObserveMedia(source string, ok bool)
}

// Options tunes an [Acquirer].
type Options struct {
	// AttemptTimeout bounds every single HEAD or GET.
	AttemptTimeout time.Duration

	// MaxBytes is the largest accepted image.
	MaxBytes int64

	// Proxies overrides [DefaultProxies].
	Proxies []Proxy

	Observer Observer
}

// Acquirer fetches, validates and stores images.
type Acquirer struct {
	client   *resty.Client
	assets   catalog.AssetRepository
	proxies  []*proxyBreaker
	observer Observer
	options  Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewAcquirer constructs an [Acquirer] storing into assets.
func NewAcquirer(assets catalog.AssetRepository, options Options, logger *slog.Logger) *Acquirer {
	if options.AttemptTimeout <= 0 {
		options.AttemptTimeout = 5 * time.Second
	}
	if options.MaxBytes <= 0 {
		options.MaxBytes = 10 << 20
	}
	if options.Proxies == nil {
		options.Proxies = DefaultProxies
	}

	client := resty.New().
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; AIHubMedia/1.0)").
		SetHeader("Accept", "image/*,*/*;q=0.8").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	acquirer := &Acquirer{
		client:   client,
		assets:   assets,
		observer: options.Observer,
		options:  options,
		logger:   logger,
		now:      time.Now,
	}
	for _, proxy := range options.Proxies {
		acquirer.proxies = append(acquirer.proxies, newProxyBreaker(proxy, logger))
	}
	return acquirer
}

// Request describes one image to acquire.
type Request struct {
	ToolID int64
	Kind   string

	// CandidateURL is the image URL supplied with the record, if any.
	CandidateURL string

	// SiteURL enables favicon discovery when set.
	SiteURL string
}

/*
Acquire resolves, downloads and stores the image described by request.

Returns:
  - *catalog.Asset: The stored asset, nil when the request names no source at all
  - error: Recoverable failure; the caller reports it as a warning
*/
func (acquirer *Acquirer) Acquire(context context.Context, request Request) (*catalog.Asset, error) {
	var candidateErr error

	if request.CandidateURL != "" {
		asset, err := acquirer.store(context, request, request.CandidateURL, SourceCandidate)
		if err == nil {
			return asset, nil
		}
		if request.SiteURL == "" {
			return nil, err
		}
		candidateErr = err
		acquirer.logger.DebugContext(context, "media_candidate_rejected",
			slog.String("url", request.CandidateURL),
			slog.String("error", err.Error()),
		)
	}

	if request.SiteURL == "" {
		return nil, nil
	}

	// A probe hit whose download is refused resumes the chain
	var (
		asset    *catalog.Asset
		storeErr error
		rejected []error
	)
	err := acquirer.discover(context, request.SiteURL, func(candidate, source string) bool {
		stored, err := acquirer.store(context, request, candidate, source)
		switch {
		case err == nil:
			asset = stored
			return true
		case errors.Is(err, errStore):
			storeErr = err
			return true
		default:
			rejected = append(rejected, err)
			acquirer.logger.DebugContext(context, "media_discovered_rejected",
				slog.String("url", candidate),
				slog.String("source", source),
				slog.String("error", err.Error()),
			)
			return false
		}
	})
	if err != nil {
		return nil, errors.Join(candidateErr, errors.Join(rejected...), err)
	}
	if storeErr != nil {
		return nil, errors.Join(candidateErr, storeErr)
	}
	return asset, nil
}

// store downloads imageURL and persists it as an asset.
func (acquirer *Acquirer) store(context context.Context, request Request, imageURL, source string) (*catalog.Asset, error) {
	content, contentType, err := acquirer.download(context, imageURL)
	acquirer.observe(source, err == nil)
	if err != nil {
		return nil, fmt.Errorf("media: %s %s: %w", request.Kind, imageURL, err)
	}

	asset := &catalog.Asset{
		ToolID:      request.ToolID,
		SourceURL:   imageURL,
		ContentType: contentType,
		FileName:    FileName(imageURL, contentType, request.Kind, acquirer.now()),
		Content:     content,
	}
	if err := acquirer.assets.CreateAsset(context, asset); err != nil {
		return nil, fmt.Errorf("%w %s: %w", errStore, request.Kind, err)
	}

	acquirer.logger.InfoContext(context, "media_acquired",
		slog.Int64("tool_id", request.ToolID),
		slog.String("kind", request.Kind),
		slog.String("source", source),
		slog.Int64("asset_id", asset.ID),
		slog.Int64("bytes", asset.ByteSize()),
	)
	return asset, nil
}

// download fetches imageURL within one attempt window and validates it.
func (acquirer *Acquirer) download(parent context.Context, imageURL string) ([]byte, string, error) {
	context, cancel := context.WithTimeout(parent, acquirer.options.AttemptTimeout)
	defer cancel()

	response, err := acquirer.client.R().
		SetContext(context).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		return nil, "", err
	}
	body := response.RawBody()
	defer body.Close()

	if response.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", response.StatusCode())
	}

	contentType := mediaType(response.Header().Get("Content-Type"))
	if !IsImage(contentType) {
		return nil, "", fmt.Errorf("%w (%s)", ErrNotImage, contentType)
	}
	if response.RawResponse.ContentLength > acquirer.options.MaxBytes {
		return nil, "", ErrTooLarge
	}

	content, err := io.ReadAll(io.LimitReader(body, acquirer.options.MaxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(content)) > acquirer.options.MaxBytes {
		return nil, "", ErrTooLarge
	}
	if len(content) == 0 {
		return nil, "", errors.New("empty body")
	}

	return content, contentType, nil
}

func (acquirer *Acquirer) observe(source string, ok bool) {
	if acquirer.observer != nil {
		acquirer.observer.ObserveMedia(source, ok)
	}
}

// # Content Types

// IsImage reports whether a media type is an image type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// mediaType strips parameters and normalises case.
func mediaType(header string) string {
	parsed, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return parsed
}

// extensions maps image types to file extensions.
var extensions = map[string]string{
	"image/jpeg":               "jpg",
	"image/png":                "png",
	"image/gif":                "gif",
	"image/webp":               "webp",
	"image/svg+xml":            "svg",
	"image/x-icon":             "ico",
	"image/vnd.microsoft.icon": "ico",
}

// FileName keeps the URL's base name when it has an extension and builds
// "{kind}_{unix}.{ext}" otherwise.
func FileName(imageURL, contentType, kind string, now time.Time) string {
	if parsed, err := url.Parse(imageURL); err == nil {
		base := path.Base(parsed.Path)
		if ext := path.Ext(base); len(ext) > 1 && len(ext) < len(base) {
			return base
		}
	}

	ext, ok := extensions[contentType]
	if !ok {
		ext = "jpg"
	}
	if kind == "" {
		kind = "image"
	}
	return kind + "_" + strconv.FormatInt(now.Unix(), 10) + "." + ext
}
