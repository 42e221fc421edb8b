package sources

import (
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <item>
      <title>First story</title>
      <link>https://example.com/first</link>
      <pubDate>Mon, 02 Jun 2025 10:00:00 +0000</pubDate>
      <author>alice</author>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.com/second</link>
      <pubDate>Tue, 03 Jun 2025 11:30:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <entry>
    <title>Atom story</title>
    <link href="https://example.org/atom-story"/>
    <updated>2025-06-02T08:00:00Z</updated>
    <author><name>bob</name></author>
  </entry>
</feed>`

func testRSSSource() *RSSSource {
	return &RSSSource{
		feeds: map[string][]string{},
		now:   func() time.Time { return time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC) },
	}
}

func TestParseFeedRSS(t *testing.T) {
	s := testRSSSource()
	topics, err := s.parseFeed("https://example.com/feed", rssFixture, 25)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}

	first := topics[0]
	if first.Title != "First story" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.SourceURL != "https://example.com/first" {
		t.Fatalf("unexpected link: %q", first.SourceURL)
	}
	want := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("unexpected date: %v", first.PublishedAt)
	}
	if first.Author != "alice" {
		t.Fatalf("unexpected author: %q", first.Author)
	}
}

func TestParseFeedAtom(t *testing.T) {
	s := testRSSSource()
	topics, err := s.parseFeed("https://example.org/feed", atomFixture, 25)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(topics))
	}

	got := topics[0]
	if got.Title != "Atom story" {
		t.Fatalf("unexpected title: %q", got.Title)
	}
	if got.SourceURL != "https://example.org/atom-story" {
		t.Fatalf("unexpected link: %q", got.SourceURL)
	}
	want := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	if !got.PublishedAt.Equal(want) {
		t.Fatalf("unexpected date: %v", got.PublishedAt)
	}
	if got.Author != "bob" {
		t.Fatalf("unexpected author: %q", got.Author)
	}
}

func TestParseFeedRespectsLimit(t *testing.T) {
	s := testRSSSource()
	topics, err := s.parseFeed("https://example.com/feed", rssFixture, 1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(topics))
	}
}

func TestParseDateFallsBackToNow(t *testing.T) {
	s := testRSSSource()
	got := s.parseDate("not a date")
	if !got.Equal(s.now()) {
		t.Fatalf("expected fallback to now, got %v", got)
	}
}
