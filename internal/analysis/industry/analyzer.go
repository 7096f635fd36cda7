package industry

import (
	"sort"
	"strings"
)

// Label is an industry shown in the investor dashboard filter.
type Label string

const (
	AI          Label = "AI"
	Fintech     Label = "Fintech"
	HealthTech  Label = "HealthTech"
	ClimateTech Label = "ClimateTech"
	EdTech      Label = "EdTech"
	SaaS        Label = "SaaS"
	ECommerce   Label = "E-commerce"
	AgTech      Label = "AgTech"
	Other       Label = "Other"
)

// Decision is the industry inferred from the founder's answers.
type Decision struct {
	Industry Label
	Score    int
}

var keywordBuckets = map[Label][]string{
	AI: {
		"ai", "artificial intelligence", "machine learning", "ml model", "llm", "neural", "nlp",
		"computer vision", "conversational ai", "ai-driven", "ai-powered", "deep learning",
	},
	Fintech: {
		"fintech", "payment", "payments", "bank", "banking", "lending", "credit", "insurance",
		"trading", "wallet", "invoice", "financial", "risk modeling",
	},
	HealthTech: {
		"health", "patient", "clinic", "clinical", "hospital", "medical", "doctor", "therapy",
		"mental health", "wellness", "diagnos",
	},
	ClimateTech: {
		"climate", "carbon", "renewable", "solar", "energy", "emission", "ev charging", "battery",
		"sustainab", "recycl",
	},
	EdTech: {
		"education", "learning platform", "students", "teacher", "school", "course", "curriculum",
		"tutor", "university",
	},
	SaaS: {
		"saas", "subscription", "per seat", "workflow", "b2b", "dashboard", "platform", "api",
		"enterprise", "crm",
	},
	ECommerce: {
		"e-commerce", "ecommerce", "marketplace", "shop", "retail", "checkout", "merchant", "store",
	},
	AgTech: {
		"agtech", "agri", "farm", "crop", "harvest", "irrigation", "livestock", "soil",
		"greenhouse", "precision agriculture",
	},
}

// Analyze infers the dominant industry of a block of text.
func Analyze(text string) Decision {
	scores := scoreText(text)
	if len(scores) == 0 {
		return Decision{Industry: Other}
	}

	// Deterministic tie-break by label name.
	labels := make([]Label, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	best := Other
	bestScore := 0
	for _, label := range labels {
		if scores[label] > bestScore {
			best = label
			bestScore = scores[label]
		}
	}
	return Decision{Industry: best, Score: bestScore}
}

func scoreText(text string) map[Label]int {
	normalized := " " + strings.TrimSpace(strings.ToLower(text)) + " "
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if word == "" {
				continue
			}
			if containsWord(normalized, word) {
				// Multi-word phrases are stronger evidence than single tokens.
				scores[label] += 2 + strings.Count(word, " ")
			}
		}
	}
	return scores
}

// containsWord matches keyword at a word start so "ai" does not hit "maintain".
func containsWord(haystack, word string) bool {
	idx := 0
	for {
		pos := strings.Index(haystack[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		if start == 0 || !isLetter(haystack[start-1]) {
			end := start + len(word)
			if len(word) > 3 || end >= len(haystack) || !isLetter(haystack[end]) {
				return true
			}
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
