package sources

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/topic"
	"github.com/kojohq/topicscope/pkg/whttp"
)

// Feeds polled per topic cluster.
var rssFeeds = map[string][]string{
	"ai-infra": {
		"https://techcrunch.com/feed/",
		"https://www.theverge.com/rss/index.xml",
	},
	"business-socioeconomic": {
		"https://feeds.bbci.co.uk/news/business/rss.xml",
	},
	"culture-music": {
		"https://feeds.bbci.co.uk/news/entertainment_and_arts/rss.xml",
	},
}

// Date layouts seen across RSS and Atom feeds.
var rssDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05-07:00",
}

type RSSSource struct {
	client *retryablehttp.Client
	feeds  map[string][]string
	now    func() time.Time
}

func NewRSSSource(client *retryablehttp.Client) *RSSSource {
	return &RSSSource{client: client, feeds: rssFeeds, now: time.Now}
}

func (s *RSSSource) Name() topic.Platform {
	return topic.PlatformRSS
}

func (s *RSSSource) Fetch(ctx context.Context, limit int) ([]RawTopic, error) {
	if limit <= 0 {
		limit = 25
	}

	var all []RawTopic
	for _, urls := range s.feeds {
		for _, feedURL := range urls {
			res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{URL: feedURL}, s.client)
			if err != nil {
				utils.Log.Warnf("rss: failed to fetch %s: %v", feedURL, err)
				continue
			}
			if res.StatusCode != 200 {
				utils.Log.Warnf("rss: %s returned HTTP %d", feedURL, res.StatusCode)
				continue
			}

			items, err := s.parseFeed(feedURL, res.BodyString, limit)
			if err != nil {
				utils.Log.Warnf("rss: failed to parse %s: %v", feedURL, err)
				continue
			}
			all = append(all, items...)
		}
	}

	utils.Log.Infof("Fetched %d topics from RSS feeds", len(all))
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// parseFeed handles both RSS <item> and Atom <entry> elements. The
// HTML parser lowercases tag names, so selectors are lowercase.
func (s *RSSSource) parseFeed(feedURL, body string, limit int) ([]RawTopic, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var topics []RawTopic
	doc.Find("item, entry").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find("title").First().Text())
		if title == "" {
			return true
		}

		link := extractLink(sel)

		dateText := strings.TrimSpace(sel.Find("pubdate").First().Text())
		if dateText == "" {
			dateText = strings.TrimSpace(sel.Find("published").First().Text())
		}
		if dateText == "" {
			dateText = strings.TrimSpace(sel.Find("updated").First().Text())
		}

		author := strings.TrimSpace(sel.Find("author name").First().Text())
		if author == "" {
			author = strings.TrimSpace(sel.Find("author").First().Text())
		}

		payload, _ := json.Marshal(map[string]string{
			"feed":  feedURL,
			"title": title,
			"link":  link,
		})

		topics = append(topics, RawTopic{
			Title:       title,
			SourceURL:   link,
			Platform:    topic.PlatformRSS,
			RawPayload:  payload,
			PublishedAt: s.parseDate(dateText),
			Author:      author,
		})
		return len(topics) < limit
	})

	return topics, nil
}

// extractLink copes with the HTML parser treating <link> as a void
// element: RSS link text ends up in a sibling text node, while Atom
// links carry the URL in an href attribute.
func extractLink(sel *goquery.Selection) string {
	linkSel := sel.Find("link").First()
	if linkSel.Length() == 0 {
		return ""
	}
	if href, ok := linkSel.Attr("href"); ok && href != "" {
		return strings.TrimSpace(href)
	}
	if text := strings.TrimSpace(linkSel.Text()); text != "" {
		return text
	}
	if n := linkSel.Get(0).NextSibling; n != nil && n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	return ""
}

func (s *RSSSource) parseDate(text string) time.Time {
	if text == "" {
		return s.now().UTC()
	}
	for _, layout := range rssDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC()
		}
	}
	return s.now().UTC()
}
