// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/net/html"
)

// conventionalPaths are probed after the page markup.
var conventionalPaths = []string{
	"/favicon.png",
	"/apple-touch-icon.png",
	"/logo.png",
	"/logo.svg",
	"/images/logo.png",
	"/assets/logo.png",
}

// maxPageBytes caps the markup read during discovery.
const maxPageBytes = 2 << 20

// errProxyUnavailable marks a proxy failure that counts against its breaker.
var errProxyUnavailable = errors.New("media: proxy unavailable")

// # Proxies

// Proxy is a third-party favicon service. Template contains "{domain}".
type Proxy struct {
	Name     string
	Template string
}

// DefaultProxies are the services tried last, in order.
var DefaultProxies = []Proxy{
	{Name: "google", Template: "https://www.google.com/s2/favicons?domain={domain}&sz=64"},
	{Name: "yandex", Template: "https://favicon.yandex.net/favicon/{domain}"},
	{Name: "duckduckgo", Template: "https://icons.duckduckgo.com/ip3/{domain}.ico"},
}

type proxyBreaker struct {
	proxy   Proxy
	breaker *gobreaker.CircuitBreaker[bool]
}

// newProxyBreaker opens after five consecutive failures and retries after a minute.
func newProxyBreaker(proxy Proxy, logger *slog.Logger) *proxyBreaker {
	breaker := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "favicon-" + proxy.Name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("media_proxy_breaker_state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &proxyBreaker{proxy: proxy, breaker: breaker}
}

func (proxy *proxyBreaker) url(domain string) string {
	return strings.ReplaceAll(proxy.proxy.Template, "{domain}", url.QueryEscape(domain))
}

// # Discovery

/*
Discover finds an icon for the product site.

Description: Tries, in order, the site's /favicon.ico, the icons and og:image
declared in the page markup, a list of conventional paths, then the favicon
proxies. The first URL answering 200 with an image content type (or no
content type at all) wins.

Returns:
  - string: The image URL
  - string: The source that produced it
  - error: [ErrNoImage], or the context error when the budget ran out
*/
func (acquirer *Acquirer) Discover(context context.Context, siteURL string) (string, string, error) {
	var found, source string
	err := acquirer.discover(context, siteURL, func(candidate, from string) bool {
		found, source = candidate, from
		return true
	})
	return found, source, err
}

// discover walks the chain and hands every probe hit to accept. The walk
// stops at the first candidate accept takes and returns nil.
func (acquirer *Acquirer) discover(context context.Context, siteURL string, accept func(candidate, source string) bool) error {
	site, err := normaliseSite(siteURL)
	if err != nil {
		return err
	}
	origin := site.Scheme + "://" + site.Host

	// 1. Standard favicon
	if favicon := origin + "/favicon.ico"; acquirer.probe(context, favicon) && accept(favicon, SourceFavicon) {
		return nil
	}
	if err := context.Err(); err != nil {
		return err
	}

	// 2. Page markup
	for _, declared := range acquirer.declaredIcons(context, site) {
		if acquirer.probe(context, declared) && accept(declared, SourceHTML) {
			return nil
		}
		if err := context.Err(); err != nil {
			return err
		}
	}

	// 3. Conventional paths
	for _, conventional := range conventionalPaths {
		if candidate := origin + conventional; acquirer.probe(context, candidate) && accept(candidate, SourceConventional) {
			return nil
		}
		if err := context.Err(); err != nil {
			return err
		}
	}

	// 4. Proxies
	for _, proxy := range acquirer.proxies {
		candidate := proxy.url(site.Host)
		found, err := proxy.breaker.Execute(func() (bool, error) {
			found, err := acquirer.probeStatus(context, candidate)
			if err != nil {
				return false, errors.Join(errProxyUnavailable, err)
			}
			return found, nil
		})
		acquirer.observe("proxy_"+proxy.proxy.Name, found)
		if err == nil && found && accept(candidate, "proxy_"+proxy.proxy.Name) {
			return nil
		}
		if err := context.Err(); err != nil {
			return err
		}
	}

	acquirer.logger.WarnContext(context, "media_favicon_not_found", slog.String("site", site.String()))
	return fmt.Errorf("%w for %s", ErrNoImage, site.Host)
}

// normaliseSite adds a scheme when missing and requires a host.
func normaliseSite(siteURL string) (*url.URL, error) {
	siteURL = strings.TrimSpace(siteURL)
	if !strings.HasPrefix(siteURL, "http://") && !strings.HasPrefix(siteURL, "https://") {
		siteURL = "https://" + siteURL
	}
	site, err := url.Parse(siteURL)
	if err != nil || site.Host == "" {
		return nil, fmt.Errorf("media: invalid site url %q", siteURL)
	}
	return site, nil
}

// probe reports whether target serves an image.
func (acquirer *Acquirer) probe(context context.Context, target string) bool {
	found, _ := acquirer.probeStatus(context, target)
	return found
}

// probeStatus issues a HEAD within one attempt window. The error is set only
// for transport failures and server errors, not for plain misses.
func (acquirer *Acquirer) probeStatus(parent context.Context, target string) (bool, error) {
	context, cancel := context.WithTimeout(parent, acquirer.options.AttemptTimeout)
	defer cancel()

	response, err := acquirer.client.R().SetContext(context).Head(target)
	if err != nil {
		return false, err
	}
	if response.StatusCode() >= http.StatusInternalServerError {
		return false, fmt.Errorf("status %d", response.StatusCode())
	}
	if response.StatusCode() != http.StatusOK {
		return false, nil
	}

	contentType := mediaType(response.Header().Get("Content-Type"))
	return contentType == "" || IsImage(contentType), nil
}

// declaredIcons fetches the site page and returns its icon candidates.
func (acquirer *Acquirer) declaredIcons(parent context.Context, site *url.URL) []string {
	context, cancel := context.WithTimeout(parent, acquirer.options.AttemptTimeout)
	defer cancel()

	response, err := acquirer.client.R().
		SetContext(context).
		SetHeader("Accept", "text/html").
		SetDoNotParseResponse(true).
		Get(site.String())
	if err != nil {
		return nil
	}
	body := response.RawBody()
	defer body.Close()

	if response.StatusCode() != http.StatusOK {
		return nil
	}

	document, err := html.Parse(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return nil
	}

	// Requests can redirect; resolve against the final page URL
	base := site
	if response.RawResponse != nil && response.RawResponse.Request != nil {
		base = response.RawResponse.Request.URL
	}
	return ExtractIcons(document, base)
}

// ExtractIcons collects icon links, then apple-touch-icons, then og:image,
// resolved against base and deduplicated.
func ExtractIcons(document *html.Node, base *url.URL) []string {
	var icons, touch, social []string

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "link":
				rel := strings.ToLower(attribute(node, "rel"))
				href := attribute(node, "href")
				if href == "" {
					break
				}
				switch {
				case strings.Contains(rel, "apple-touch-icon"):
					touch = append(touch, href)
				case containsField(rel, "icon"):
					icons = append(icons, href)
				}
			case "meta":
				property := strings.ToLower(attribute(node, "property"))
				if property == "" {
					property = strings.ToLower(attribute(node, "name"))
				}
				if content := attribute(node, "content"); property == "og:image" && content != "" {
					social = append(social, content)
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(document)

	seen := make(map[string]bool)
	resolved := make([]string, 0, len(icons)+len(touch)+len(social))
	for _, href := range append(append(icons, touch...), social...) {
		reference, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		absolute := base.ResolveReference(reference).String()
		if !seen[absolute] {
			seen[absolute] = true
			resolved = append(resolved, absolute)
		}
	}
	return resolved
}

func attribute(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func containsField(value, field string) bool {
	for _, part := range strings.Fields(value) {
		if part == field {
			return true
		}
	}
	return false
}
