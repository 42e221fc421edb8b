package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/topic"
)

const audienceSystemPrompt = `You score content topics for a specific audience and always respond with JSON.`

const audiencePromptTemplate = `Score this topic (0-1) for audience fit:

Audience Profile:
- Age: 20-40 years old
- Demographics: Predominantly male (but not overly), ethnically diverse
- Political: Left-leaning or centrist
- Interests: Tech-savvy, business/economics, culturally trendy/hip/cool
- Content preferences: Engaging, slightly sensational but not excessive

Topic Information:
- Title: %s
- Cluster: %s
- Entities: %s
- Source: %s

Respond with JSON:
{
    "score": 0.0-1.0,
    "reasoning": "Brief explanation of why this score fits the audience"
}`

const integritySystemPrompt = `You review content topics for integrity issues and always respond with JSON.`

const integrityPromptTemplate = `Analyze this topic for content integrity issues:

Topic:
- Title: %s
- URL: %s
- Source: %s

Check for:
- Obscene or sexual content
- Immoral or unethical content
- Excessive sensationalism
- Misinformation risk
- Content that could damage brand reputation

Respond with JSON:
{
    "penalty": 0.0 to -0.5 (0.0 = no issues, -0.1 to -0.3 = minor concerns, -0.5 = major violation),
    "reasoning": "Brief explanation",
    "flags": ["flag1", "flag2"] (optional list of specific issues)
}`

// audienceFitLLM scores audience fit via the LLM, honoring cache and
// budget. Any failure falls back to the keyword heuristic.
func (e *Engine) audienceFitLLM(ctx context.Context, cand *topic.Candidate, guard *CostGuard) (float64, string, float64) {
	if cached := e.cachedResult(*cand, cacheTypeAudience); cached != nil {
		score, _ := cached["score"].(float64)
		reasoning, _ := cached["reasoning"].(string)
		if reasoning == "" {
			reasoning = "Cached result"
		}
		return clamp01(score), reasoning, 0
	}

	if guard == nil || !guard.CanSpend() {
		score, why := e.AudienceFitKeyword(*cand)
		return score, "Keyword-based: " + why, 0
	}

	entities := "None"
	if len(cand.Entities) > 0 {
		shown := cand.Entities
		if len(shown) > 10 {
			shown = shown[:10]
		}
		entities = strings.Join(shown, ", ")
	}
	prompt := fmt.Sprintf(audiencePromptTemplate, cand.Title, cand.Cluster, entities, cand.Platform)

	content, usage, err := e.LLM.Chat(ctx, audienceSystemPrompt, prompt)
	if err != nil {
		utils.Log.Warnf("llm audience fit failed for topic %s: %v", cand.ID, err)
		score, why := e.AudienceFitKeyword(*cand)
		return score, "Keyword-based: " + why, 0
	}
	guard.Charge(usage.CostUSD)

	var parsed struct {
		Score     *float64 `json:"score"`
		Reasoning string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.Score == nil {
		utils.Log.Warnf("llm audience fit returned unusable JSON for topic %s", cand.ID)
		score, why := e.AudienceFitKeyword(*cand)
		return score, "Keyword-based: " + why, usage.CostUSD
	}

	score := clamp01(*parsed.Score)
	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "LLM analysis"
	}
	reasoning = "LLM: " + reasoning

	e.cacheResult(cand, cacheTypeAudience, map[string]any{
		"score":     score,
		"reasoning": reasoning,
	})
	return score, reasoning, usage.CostUSD
}

// integrityPenaltyLLM checks integrity via the LLM. Failures and
// budget stops degrade to no penalty.
func (e *Engine) integrityPenaltyLLM(ctx context.Context, cand *topic.Candidate, guard *CostGuard) (float64, string, float64) {
	if cached := e.cachedResult(*cand, cacheTypeIntegrity); cached != nil {
		penalty, _ := cached["penalty"].(float64)
		reasoning, _ := cached["reasoning"].(string)
		if reasoning == "" {
			reasoning = "Cached result"
		}
		return clampPenalty(penalty), reasoning, 0
	}

	if guard == nil || !guard.CanSpend() {
		return 0.0, "No integrity issues detected (LLM unavailable)", 0
	}

	sourceURL := cand.SourceURL
	if sourceURL == "" {
		sourceURL = "N/A"
	}
	prompt := fmt.Sprintf(integrityPromptTemplate, cand.Title, sourceURL, cand.Platform)

	content, usage, err := e.LLM.Chat(ctx, integritySystemPrompt, prompt)
	if err != nil {
		utils.Log.Warnf("llm integrity check failed for topic %s: %v", cand.ID, err)
		return 0.0, "No integrity issues detected (LLM unavailable)", 0
	}
	guard.Charge(usage.CostUSD)

	var parsed struct {
		Penalty   *float64 `json:"penalty"`
		Reasoning string   `json:"reasoning"`
		Flags     []string `json:"flags"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.Penalty == nil {
		utils.Log.Warnf("llm integrity check returned unusable JSON for topic %s", cand.ID)
		return 0.0, "No integrity issues detected (LLM unavailable)", usage.CostUSD
	}

	penalty := clampPenalty(*parsed.Penalty)
	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "LLM analysis"
	}
	if len(parsed.Flags) > 0 {
		reasoning = fmt.Sprintf("%s (Flags: %s)", reasoning, strings.Join(parsed.Flags, ", "))
	}
	reasoning = "LLM: " + reasoning

	e.cacheResult(cand, cacheTypeIntegrity, map[string]any{
		"penalty":   penalty,
		"reasoning": reasoning,
	})
	return penalty, reasoning, usage.CostUSD
}

// clampPenalty keeps the integrity penalty inside [-0.5, 0].
func clampPenalty(v float64) float64 {
	if v < -0.5 {
		return -0.5
	}
	if v > 0 {
		return 0
	}
	return v
}
