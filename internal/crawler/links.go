package crawler

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

// ExtractLinks walks a parsed page and returns its outbound links as
// absolute URLs in document order, with duplicates removed (first
// occurrence wins). Relative hrefs are resolved against base, the URL of
// the page being parsed. Non-HTTP(S) schemes and malformed hrefs are
// skipped silently.
//
// When sameDomainOnly is true, only links whose registrable domain equals
// the scope URL's registrable domain are retained; subdomains of the same
// registrable domain count as same-domain. The scope is the crawl's start
// URL, which may differ from base on pages deeper in the traversal.
func ExtractLinks(doc *html.Node, base, scope *url.URL, sameDomainOnly bool) []string {
	links := make([]string, 0)
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				if resolved := resolveLink(base, href); resolved != "" {
					if !sameDomainOnly || sameRegistrableDomain(scope, resolved) {
						if _, dup := seen[resolved]; !dup {
							seen[resolved] = struct{}{}
							links = append(links, resolved)
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// resolveLink resolves an href against the base URL and filters out
// schemes and fragments that cannot be crawled. Returns "" for anything
// unusable; malformed hrefs are not an error.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host == "" {
		return ""
	}

	return resolved.String()
}

// sameRegistrableDomain reports whether the link shares the scope URL's
// registrable domain (e.g. docs.example.com and example.com both register
// under example.com).
func sameRegistrableDomain(scope *url.URL, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return registrableDomain(u.Hostname()) == registrableDomain(scope.Hostname())
}

// registrableDomain returns the eTLD+1 for a hostname, falling back to the
// lowercased hostname itself when the public suffix list cannot produce
// one (IP addresses, single-label hosts).
func registrableDomain(host string) string {
	host = strings.ToLower(host)
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	return host
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
