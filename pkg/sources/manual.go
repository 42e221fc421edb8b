package sources

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/kojohq/topicscope/pkg/topic"
	"github.com/kojohq/topicscope/pkg/whttp"
)

// NewManualTopic builds a raw topic from operator input. When no title
// is given but a URL is, the page is fetched and its HTML title used.
func NewManualTopic(ctx context.Context, client *retryablehttp.Client, title, sourceURL, notes string) (RawTopic, error) {
	if title == "" && sourceURL == "" {
		return RawTopic{}, errors.New("manual topic requires a title or a URL")
	}

	if title == "" {
		res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{URL: sourceURL}, client)
		if err != nil {
			return RawTopic{}, err
		}
		if res.HTTPTitle == "" {
			return RawTopic{}, errors.New("could not extract a title from " + sourceURL)
		}
		title = res.HTTPTitle
	}

	var payload json.RawMessage
	if notes != "" {
		payload, _ = json.Marshal(map[string]string{"notes": notes})
	}

	return RawTopic{
		Title:       title,
		SourceURL:   sourceURL,
		Platform:    topic.PlatformManual,
		RawPayload:  payload,
		PublishedAt: time.Now().UTC(),
	}, nil
}
