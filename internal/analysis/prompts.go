package analysis

import (
	"github.com/quillsoft/paperscope/internal/gateway"
	"github.com/quillsoft/paperscope/internal/model"
)

// extractionSystem frames every structured call. Keeping it constant
// across calls lets providers cache the system block.
const extractionSystem = "You are a professional information extraction assistant. Please return results in JSON format only, without any other content."

const backgroundPrompt = `Analyze the research background of this paper and extract the following information:

Paper content:
%s

Please return results in JSON format, including:
{
    "research_field": "Research field and domain",
    "problem_definition": "Problem being solved",
    "motivation": "Research motivation",
    "existing_limitations": "Limitations of existing methods"
}

Be concise and accurate in your extraction.`

const technologyPrompt = `Analyze the technical methods of this paper and extract the following information:

Paper content:
%s

Please return results in JSON format, including:
{
    "method_overview": "Overall description of the method",
    "innovations": ["Innovation 1", "Innovation 2", ...],
    "key_designs": ["Key design 1", "Key design 2", ...],
    "architecture": "Model/system architecture description",
    "model_type": "The PRIMARY model type. Choose ONE from: LLM (text-only language model), Multimodal (handles multiple modalities like vision+language), Vision (image/video-focused), Audio (speech/sound-focused), Code (specialized for code), Reasoning (specialized for reasoning tasks), or Other. Do NOT confuse models from the same series - check the paper content carefully.",
    "application_scenarios": ["Primary application 1", "Primary application 2", ...]
}

Focus on core technical contributions. Pay special attention to
distinguishing the model type and identifying the primary application
scenarios based on the paper's focus.`

const experimentPrompt = `Analyze the experimental design of this paper and extract the following information:

Paper content:
%s

Please return results in JSON format, including:
{
    "datasets": ["Dataset 1", "Dataset 2", ...],
    "metrics": ["Evaluation metric 1", "Evaluation metric 2", ...],
    "baselines": ["Baseline method 1", "Baseline method 2", ...],
    "setup": "Experimental setup description",
    "ablation_studies": "Description of ablation studies (if any)"
}

Include specific dataset names and metrics.`

const resultPrompt = `Analyze the results of this paper and extract the following information:

Paper content:
%s

Please return results in JSON format, including:
{
    "main_results": "Key experimental results",
    "performance_improvements": "Performance improvements compared to baselines",
    "key_findings": ["Key finding 1", "Key finding 2", ...],
    "limitations": "Known limitations of the method",
    "future_work": "Future work directions"
}

Summarize the results accurately.`

// keywordsPrompt takes num_keywords, title, abstract, content.
const keywordsPrompt = `Extract %d core keywords from the following paper abstract and content.

Title: %s
Abstract: %s

Main content:
%s

Please return results in JSON format:
{
    "keywords": ["keyword1", "keyword2", ...]
}

Keywords should cover:
1. Research field/domain
2. Core methods/techniques
3. Key contributions
4. Application areas`

// summaryPrompt takes language, title, abstract and the four dimension
// digests. The reply is free text, not JSON.
const summaryPrompt = `Generate a comprehensive summary of this paper in %s.

Paper title: %s
Abstract: %s

Main analysis results:
- Research background: %s
- Core technology: %s
- Experimental design: %s
- Main results: %s

Please generate a detailed (400-600 words) summary covering:
1. Research problem and motivation
2. Proposed method and innovations
3. Experimental validation and main results
4. Paper contributions and significance

Output the summary directly, no JSON format needed.`

// resourcePrompt takes title and the resource digest. Only captions and
// short descriptors go to the model, never image payloads.
const resourcePrompt = `Identify the most important figures, tables, and equations for understanding this paper.

Paper: %s

%s

Select up to 3 most important figures, 3 most important tables, and
5 most important equations, ranked by importance.

Return results in JSON format, using the listed ids:
{
    "figures": ["fig_1", ...],
    "tables": ["table_1", ...],
    "equations": ["eq_1", ...]
}

If a category has no key resources, return an empty list.`

var (
	stringProp     = map[string]any{"type": "string"}
	stringListProp = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
)

func objectShape(name string, props map[string]any) *gateway.Shape {
	return &gateway.Shape{
		Name: name,
		Schema: map[string]any{
			"type":       "object",
			"properties": props,
		},
	}
}

// promptSpec couples a dimension's template with its reply shape and
// the field order used to flatten the payload into a digest.
type promptSpec struct {
	template string
	shape    *gateway.Shape
	fields   []string
}

var backgroundShape = objectShape("background", map[string]any{
	"research_field":       stringProp,
	"problem_definition":   stringProp,
	"motivation":           stringProp,
	"existing_limitations": stringProp,
})

var technologyShape = objectShape("technology", map[string]any{
	"method_overview":       stringProp,
	"innovations":           stringListProp,
	"key_designs":           stringListProp,
	"architecture":          stringProp,
	"model_type":            stringProp,
	"application_scenarios": stringListProp,
})

var experimentShape = objectShape("experiment", map[string]any{
	"datasets":         stringListProp,
	"metrics":          stringListProp,
	"baselines":        stringListProp,
	"setup":            stringProp,
	"ablation_studies": stringProp,
})

var resultShape = objectShape("result", map[string]any{
	"main_results":             stringProp,
	"performance_improvements": stringProp,
	"key_findings":             stringListProp,
	"limitations":              stringProp,
	"future_work":              stringProp,
})

var keywordsShape = objectShape("keywords", map[string]any{
	"keywords": stringListProp,
})

var resourceShape = objectShape("resources", map[string]any{
	"figures":   stringListProp,
	"tables":    stringListProp,
	"equations": stringListProp,
})

var dimensionPrompts = map[model.Dimension]promptSpec{
	model.DimensionBackground: {
		template: backgroundPrompt,
		shape:    backgroundShape,
		fields:   []string{"research_field", "problem_definition", "motivation", "existing_limitations"},
	},
	model.DimensionTechnology: {
		template: technologyPrompt,
		shape:    technologyShape,
		fields:   []string{"method_overview", "innovations", "key_designs", "architecture", "model_type", "application_scenarios"},
	},
	model.DimensionExperiment: {
		template: experimentPrompt,
		shape:    experimentShape,
		fields:   []string{"datasets", "metrics", "baselines", "setup", "ablation_studies"},
	},
	model.DimensionResult: {
		template: resultPrompt,
		shape:    resultShape,
		fields:   []string{"main_results", "performance_improvements", "key_findings", "limitations", "future_work"},
	},
}

// archKeywords marks paragraphs worth sampling into the technology
// context even when they fall past the method lead. Heritage claims
// and scale statements routinely hide mid-section.
var archKeywords = []string{
	"base model", "built on", "based on", "starting from",
	"initialized from", "inherit", "extend",
	"architecture", "moe", "mixture-of-experts", "mixture of experts",
	"dense", "sparse", "transformer", "attention",
	"parameters", "param", "billion", "million",
	"total parameters", "activated parameters",
	"expert", "routing", "gating", "load balancing",
}
