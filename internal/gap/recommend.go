package gap

import (
	"fmt"
	"strings"
)

type bucket struct {
	keywords  []string
	templates map[string]string
}

// buckets are checked in order; a missing topic joins every bucket one of
// whose keywords it contains.
var buckets = []bucket{
	{
		keywords: []string{"definizione", "intelligenza", "artificiale", "machine", "learning", "deep",
			"definition", "intelligence", "artificial"},
		templates: map[string]string{
			"it": "Aggiungi una sezione con definizioni chiare di: %s",
			"en": "Add a section with clear definitions of: %s",
		},
	},
	{
		keywords: []string{"applicazioni", "sanità", "trasporti", "finanza", "automazione", "robotica",
			"applications", "healthcare", "transportation", "finance", "automation", "robotics"},
		templates: map[string]string{
			"it": "Includi esempi di applicazioni pratiche: %s",
			"en": "Include examples of practical applications: %s",
		},
	},
	{
		keywords: []string{"vantaggi", "efficienza", "precisione", "innovazione",
			"advantages", "benefits", "efficiency", "accuracy", "innovation"},
		templates: map[string]string{
			"it": "Evidenzia i vantaggi: %s",
			"en": "Highlight the advantages: %s",
		},
	},
	{
		keywords: []string{"sfide", "etica", "sicurezza", "lavoro", "trasparenza",
			"challenges", "ethics", "security", "jobs", "transparency"},
		templates: map[string]string{
			"it": "Discuti le sfide e considerazioni etiche: %s",
			"en": "Discuss the challenges and ethical considerations: %s",
		},
	},
}

var wellCovered = map[string]string{
	"it": "L'articolo copre bene gli argomenti principali dell'AI Overview",
	"en": "The article covers the main topics of the AI Overview well",
}

// Recommend returns one sentence per bucket holding missing topics, in
// bucket order, or a single "well covered" sentence when none do. Unknown
// languages fall back to English.
func Recommend(missing []string, lang string) []string {
	if _, ok := wellCovered[lang]; !ok {
		lang = "en"
	}
	var out []string
	for _, b := range buckets {
		var hits []string
		for _, topic := range missing {
			lower := strings.ToLower(topic)
			for _, kw := range b.keywords {
				if strings.Contains(lower, kw) {
					hits = append(hits, topic)
					break
				}
			}
		}
		if len(hits) > 0 {
			out = append(out, fmt.Sprintf(b.templates[lang], strings.Join(hits, ", ")))
		}
	}
	if len(out) == 0 {
		out = append(out, wellCovered[lang])
	}
	return out
}
