package sources

import "strings"

// Keyword tables driving entity extraction. Matching is
// case-insensitive substring search over the title.
var techCompanies = []string{
	"Google", "Apple", "Microsoft", "OpenAI", "Anthropic", "Meta",
	"Amazon", "Tesla", "Netflix", "Twitter", "X", "Facebook",
	"Instagram", "TikTok", "YouTube", "LinkedIn", "Reddit", "GitHub",
	"NVIDIA", "AMD", "Intel",
}

var aiModels = []string{
	"GPT-4", "GPT-3", "GPT-3.5", "Claude", "Claude 3", "Claude 3.5",
	"Gemini", "Llama", "Mistral", "PaLM", "BERT", "Transformer",
}

// ExtractEntities pulls known company and model names out of a title.
func ExtractEntities(title string) []string {
	titleLower := strings.ToLower(title)

	var entities []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		entities = append(entities, name)
	}

	for _, company := range techCompanies {
		if strings.Contains(titleLower, strings.ToLower(company)) {
			add(company)
		}
	}
	for _, model := range aiModels {
		if strings.Contains(titleLower, strings.ToLower(model)) {
			add(model)
		}
	}
	return entities
}

// defaultCluster is the fallback when no keyword matches.
const defaultCluster = "business-socioeconomic"

// clusterOrder fixes the tie-break order for cluster assignment.
var clusterOrder = []string{
	"ai-infra",
	"business-socioeconomic",
	"culture-music",
	"applied-industry",
	"meta-content-intel",
}

var clusterKeywords = map[string][]string{
	"ai-infra": {
		"AI", "artificial intelligence", "machine learning", "LLM", "GPT",
		"Claude", "infrastructure", "model", "neural", "deep learning",
		"transformer", "AGI", "singularity",
	},
	"business-socioeconomic": {
		"business", "economy", "startup", "tech", "market", "finance",
		"socioeconomic", "industry", "venture", "IPO", "acquisition", "merger",
	},
	"culture-music": {
		"music", "entertainment", "celebrity", "culture", "trending",
		"viral", "artist", "album", "song", "award", "Grammy", "Oscar",
	},
	"applied-industry": {
		"insurance", "mortgage", "real estate", "fintech", "healthcare",
		"legal", "compliance", "regulation",
	},
	"meta-content-intel": {
		"content", "social media", "platform", "creator", "marketing",
		"strategy", "algorithm", "engagement",
	},
}

// ClusterTopic assigns a topic cluster by counting keyword hits over
// the title and extracted entities. Ties go to the earlier cluster in
// clusterOrder; zero hits fall back to the default cluster.
func ClusterTopic(title string, entities []string) string {
	combined := strings.ToLower(title + " " + strings.Join(entities, " "))

	best := ""
	bestScore := 0
	for _, cluster := range clusterOrder {
		score := 0
		for _, kw := range clusterKeywords[cluster] {
			if strings.Contains(combined, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			best = cluster
			bestScore = score
		}
	}

	if bestScore == 0 {
		return defaultCluster
	}
	return best
}
