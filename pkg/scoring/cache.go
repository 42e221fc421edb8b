package scoring

import (
	"fmt"
	"time"

	"github.com/kojohq/topicscope/pkg/topic"
)

// cacheMetadataKey is where LLM results live inside candidate metadata.
const cacheMetadataKey = "_scoring_cache"

// cacheTTL bounds how long an LLM assessment stays valid.
const cacheTTL = 24 * time.Hour

const (
	cacheTypeAudience  = "audience_fit"
	cacheTypeIntegrity = "integrity"
)

func cacheKey(cacheType string, cand topic.Candidate) string {
	return fmt.Sprintf("%s:%s:%s", cacheType, cand.ID, topic.TitleHash(cand.Title))
}

// cachedResult returns a still-valid LLM result from the candidate's
// metadata, or nil.
func (e *Engine) cachedResult(cand topic.Candidate, cacheType string) map[string]any {
	meta, ok := cand.Metadata[cacheMetadataKey].(map[string]any)
	if !ok {
		return nil
	}
	entry, ok := meta[cacheKey(cacheType, cand)].(map[string]any)
	if !ok {
		return nil
	}

	cachedAt, ok := entry["cached_at"].(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, cachedAt)
	if err != nil {
		return nil
	}
	if e.now().UTC().Sub(t) >= cacheTTL {
		return nil
	}

	result, ok := entry["result"].(map[string]any)
	if !ok {
		return nil
	}
	return result
}

// cacheResult writes an LLM result into the candidate's metadata. The
// caller persists the candidate.
func (e *Engine) cacheResult(cand *topic.Candidate, cacheType string, result map[string]any) {
	if cand.Metadata == nil {
		cand.Metadata = make(map[string]any)
	}
	meta, ok := cand.Metadata[cacheMetadataKey].(map[string]any)
	if !ok {
		meta = make(map[string]any)
		cand.Metadata[cacheMetadataKey] = meta
	}
	meta[cacheKey(cacheType, *cand)] = map[string]any{
		"cached_at": e.now().UTC().Format(time.RFC3339),
		"result":    result,
	}
}
