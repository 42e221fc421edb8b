package sources

import (
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// Deduper filters raw topics already seen in this run or already
// stored. Duplicates are detected by normalized URL and by normalized
// title, whichever hits first.
type Deduper struct {
	urls   map[string]struct{}
	titles map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{
		urls:   make(map[string]struct{}),
		titles: make(map[string]struct{}),
	}
}

// Remember marks an already stored candidate so later fetches of the
// same item are dropped.
func (d *Deduper) Remember(title, sourceURL string) {
	if key := NormalizeTitle(title); key != "" {
		d.titles[key] = struct{}{}
	}
	if key := NormalizeURL(sourceURL); key != "" {
		d.urls[key] = struct{}{}
	}
}

// Seen reports whether the topic duplicates a remembered one, and
// remembers it either way.
func (d *Deduper) Seen(t RawTopic) bool {
	urlKey := NormalizeURL(t.SourceURL)
	titleKey := NormalizeTitle(t.Title)

	_, urlDup := d.urls[urlKey]
	_, titleDup := d.titles[titleKey]
	dup := (urlKey != "" && urlDup) || (titleKey != "" && titleDup)

	d.Remember(t.Title, t.SourceURL)
	return dup
}

// NormalizeTitle lowercases and collapses whitespace so near-identical
// titles from different platforms compare equal.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// NormalizeURL reduces a URL to registrable-domain + path. Scheme,
// query string, fragment and subdomain churn (www vs bare) do not make
// two URLs distinct.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(raw)
	}

	host := strings.ToLower(u.Hostname())
	if domain, err := publicsuffix.Domain(host); err == nil {
		host = domain
	}

	return host + strings.TrimSuffix(u.Path, "/")
}
