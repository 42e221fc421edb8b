package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/topic"
	"github.com/kojohq/topicscope/pkg/whttp"
)

const hnBaseURL = "https://hacker-news.firebaseio.com/v0"

type HackerNewsSource struct {
	client      *retryablehttp.Client
	baseURL     string
	concurrency int
}

func NewHackerNewsSource(client *retryablehttp.Client) *HackerNewsSource {
	return &HackerNewsSource{client: client, baseURL: hnBaseURL, concurrency: 10}
}

func (s *HackerNewsSource) Name() topic.Platform {
	return topic.PlatformHackerNews
}

func (s *HackerNewsSource) Fetch(ctx context.Context, limit int) ([]RawTopic, error) {
	if limit <= 0 {
		limit = 25
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{URL: s.baseURL + "/topstories.json"}, s.client)
	if err != nil {
		return nil, fmt.Errorf("hackernews: fetch top stories: %w", err)
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("hackernews: top stories returned HTTP %d", res.StatusCode)
	}

	var ids []int64
	for _, id := range gjson.Parse(res.BodyString).Array() {
		ids = append(ids, id.Int())
		if len(ids) == limit {
			break
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("hackernews: top stories list is empty")
	}

	results := make([]*RawTopic, len(ids))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(idx int, storyID int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			url := fmt.Sprintf("%s/item/%d.json", s.baseURL, storyID)
			itemRes, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{URL: url}, s.client)
			if err != nil {
				utils.Log.Warnf("hackernews: failed to fetch story %d: %v", storyID, err)
				return
			}
			if itemRes.StatusCode != 200 {
				utils.Log.Warnf("hackernews: story %d returned HTTP %d", storyID, itemRes.StatusCode)
				return
			}

			item := gjson.Parse(itemRes.BodyString)
			if item.Get("type").Str != "story" || item.Get("title").Str == "" {
				return
			}

			results[idx] = &RawTopic{
				Title:       item.Get("title").Str,
				SourceURL:   item.Get("url").Str,
				Platform:    topic.PlatformHackerNews,
				RawPayload:  json.RawMessage(itemRes.BodyString),
				PublishedAt: time.Unix(item.Get("time").Int(), 0).UTC(),
				Author:      item.Get("by").Str,
			}
		}(i, id)
	}
	wg.Wait()

	var topics []RawTopic
	for _, r := range results {
		if r != nil {
			topics = append(topics, *r)
		}
	}
	utils.Log.Infof("Fetched %d topics from Hacker News", len(topics))
	return topics, nil
}
