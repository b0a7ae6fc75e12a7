package aggregate

import "github.com/quillsoft/paperscope/internal/gateway"

// aggregateSystem frames the structured aggregation calls. The wording
// matches the per-document extraction system prompt so providers can
// serve both from the same cached block. Custom narrative calls carry
// no system prompt; the caller directive governs.
const aggregateSystem = "You are a professional information extraction assistant. Please return results in JSON format only, without any other content."

// comparisonPrompt takes the document count, the axis list, and the
// document digests. One call yields the whole comparison artifact.
const comparisonPrompt = `Compare the following %d papers across these dimensions: %s.

%s

For each dimension, write one comparison cell per paper describing how the
paper addresses that dimension, with concrete differences and numbers where
the digests provide them. When a dimension concerns architecture, name each
paper's architecture family (dense Transformer, mixture-of-experts,
encoder-decoder, CNN, and so on) and its key structural choices. Key every
cell by the paper's document id.

Also provide:
1. An overall comparative summary of the paper set
2. Common themes shared across the papers
3. The key differences that matter most
4. A best-effort development timeline ordering the papers chronologically

Please return results in JSON format, including:
{
    "overall_summary": "Overall comparative summary",
    "matrix": {"<dimension>": {"<document id>": "Comparison cell"}},
    "common_themes": ["Theme 1", "Theme 2", ...],
    "key_differences": ["Difference 1", "Difference 2", ...],
    "timeline": [{"order": 1, "document": "<document id>", "date": "Year if known", "contribution": "Main contribution"}]
}

Base every cell strictly on the digests; leave a cell out rather than
inventing content.`

// trendPrompt takes the document count and the document digests.
const trendPrompt = `Analyze the development trends across the following %d papers.

%s

Identify:
1. The technology evolution path connecting these papers
2. Development trends: what is changing across the set and what drives it
3. Common challenges the papers wrestle with
4. A development timeline ordering the papers chronologically

Please return results in JSON format, including:
{
    "overall_summary": "Summary of the development arc",
    "timeline": [{"order": 1, "document": "<document id>", "date": "Year if known", "contribution": "Main contribution"}],
    "trends": [{"name": "Trend name", "description": "What is changing and why", "evidence": ["Supporting observation", ...]}],
    "common_themes": ["Theme 1", ...],
    "key_differences": ["Difference 1", ...]
}

Ground every trend in the digests and cite the papers that evidence it.`

// customPrompt takes the caller directive and the document digests. The
// reply is free text, carried verbatim as the narrative.
const customPrompt = `Analyze the following papers according to this requirement:

%s

%s

Answer the requirement directly and thoroughly, grounded in the paper
digests above. Output the analysis directly, no JSON format needed.`

var (
	stringProp     = map[string]any{"type": "string"}
	stringListProp = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
)

var timelineProp = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"order":        map[string]any{"type": "integer"},
			"document":     stringProp,
			"date":         stringProp,
			"contribution": stringProp,
		},
	},
}

var comparisonShape = &gateway.Shape{
	Name: "comparison",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_summary": stringProp,
			"matrix": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type":                 "object",
					"additionalProperties": stringProp,
				},
			},
			"common_themes":   stringListProp,
			"key_differences": stringListProp,
			"timeline":        timelineProp,
		},
	},
}

var trendShape = &gateway.Shape{
	Name: "trend",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_summary": stringProp,
			"timeline":        timelineProp,
			"trends": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        stringProp,
						"description": stringProp,
						"evidence":    stringListProp,
					},
				},
			},
			"common_themes":   stringListProp,
			"key_differences": stringListProp,
		},
	},
}
