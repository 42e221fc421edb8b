package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/topic"
	"github.com/kojohq/topicscope/pkg/whttp"
)

const redditBaseURL = "https://www.reddit.com"

// Subreddits polled per topic cluster.
var redditSubreddits = map[string][]string{
	"ai-infra":               {"MachineLearning", "artificial", "singularity"},
	"business-socioeconomic": {"technology", "business", "startups"},
	"culture-music":          {"entertainment", "music", "television"},
	"applied-industry":       {"insurance", "realestate"},
	"meta-content-intel":     {"content_marketing", "socialmedia"},
}

type RedditSource struct {
	client  *retryablehttp.Client
	baseURL string
	// delay between subreddit requests; reddit allows ~60 req/min
	delay time.Duration
}

func NewRedditSource(client *retryablehttp.Client) *RedditSource {
	return &RedditSource{client: client, baseURL: redditBaseURL, delay: time.Second}
}

func (s *RedditSource) Name() topic.Platform {
	return topic.PlatformReddit
}

func (s *RedditSource) Fetch(ctx context.Context, limit int) ([]RawTopic, error) {
	perRequest := limit
	if perRequest <= 0 || perRequest > 25 {
		perRequest = 25
	}

	var all []RawTopic
	for _, subs := range redditSubreddits {
		for _, sub := range subs {
			url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", s.baseURL, sub, perRequest)
			res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{URL: url}, s.client)
			if err != nil {
				utils.Log.Warnf("reddit: failed to fetch r/%s: %v", sub, err)
				continue
			}
			if res.StatusCode != 200 {
				utils.Log.Warnf("reddit: r/%s returned HTTP %d", sub, res.StatusCode)
				continue
			}

			for _, post := range gjson.Get(res.BodyString, "data.children").Array() {
				data := post.Get("data")
				title := data.Get("title").Str
				if title == "" {
					continue
				}
				all = append(all, RawTopic{
					Title:       title,
					SourceURL:   s.baseURL + data.Get("permalink").Str,
					Platform:    topic.PlatformReddit,
					RawPayload:  json.RawMessage(data.Raw),
					PublishedAt: time.Unix(int64(data.Get("created_utc").Float()), 0).UTC(),
					Author:      data.Get("author").Str,
				})
			}

			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return all, ctx.Err()
			}
		}
	}

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
