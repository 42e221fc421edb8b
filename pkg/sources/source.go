// Package sources implements the topic discovery pollers. Each source
// knows how to pull raw candidates from one platform; the Ingestor
// enriches, deduplicates and persists them.
package sources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kojohq/topicscope/pkg/topic"
)

// RawTopic is a discovered item before enrichment.
type RawTopic struct {
	Title       string
	SourceURL   string
	Platform    topic.Platform
	RawPayload  json.RawMessage
	PublishedAt time.Time
	Author      string
}

// Source pulls raw topics from a single platform.
type Source interface {
	Name() topic.Platform
	Fetch(ctx context.Context, limit int) ([]RawTopic, error)
}
