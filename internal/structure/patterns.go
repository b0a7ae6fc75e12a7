package structure

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/quillsoft/paperscope/internal/model"
)

// leadingNumbering strips "1", "2.3", "IV."-free decimal prefixes
// before a header is matched, so "3.1 Results" matches the same rule
// as "Results".
var leadingNumbering = regexp.MustCompile(`^[\d.]+\s*`)

// defaultRules is the builtin header vocabulary, in priority order.
// Every pattern is matched case-insensitively against the whole line.
var defaultRules = []ruleSpec{
	{model.KindAbstract, []string{
		`^abstract\s*$`,
	}},
	{model.KindIntroduction, []string{
		`^(?:\d+\.?\s*)?introduction\s*$`,
		`^1\s+introduction`,
	}},
	{model.KindRelatedWork, []string{
		`^(?:\d+\.?\s*)?related\s+work\s*$`,
		`^(?:\d+\.?\s*)?background\s*$`,
		`^(?:\d+\.?\s*)?preliminaries\s*$`,
	}},
	{model.KindMethod, []string{
		`^(?:\d+\.?\s*)?methods?\s*$`,
		`^(?:\d+\.?\s*)?methodology\s*$`,
		`^(?:\d+\.?\s*)?approach\s*$`,
		`^(?:\d+\.?\s*)?(?:our\s+)?model\s*$`,
		`^(?:\d+\.?\s*)?proposed\s+method\s*$`,
		`^(?:\d+\.?\s*)?framework\s*$`,
		`^(?:\d+\.?\s*)?architecture\s*$`,
	}},
	{model.KindExperiment, []string{
		`^(?:\d+\.?\s*)?experiments?\s*$`,
		`^(?:\d+\.?\s*)?evaluation\s*$`,
		`^(?:\d+\.?\s*)?experimental\s+(?:setup|results?)\s*$`,
	}},
	{model.KindResult, []string{
		`^(?:\d+\.?\s*)?results?\s*$`,
		`^(?:\d+\.?\s*)?findings?\s*$`,
	}},
	{model.KindDiscussion, []string{
		`^(?:\d+\.?\s*)?discussion\s*$`,
		`^(?:\d+\.?\s*)?analysis\s*$`,
	}},
	{model.KindConclusion, []string{
		`^(?:\d+\.?\s*)?conclusions?\s*$`,
		`^(?:\d+\.?\s*)?summary\s*$`,
		`^(?:\d+\.?\s*)?concluding\s+remarks?\s*$`,
	}},
	{model.KindReferences, []string{
		`^references?\s*$`,
		`^bibliography\s*$`,
	}},
	{model.KindAppendix, []string{
		`^(?:appendix|appendices)\s*`,
	}},
	{model.KindAcknowledgments, []string{
		`^acknowledge?ments?\s*$`,
	}},
}

type ruleSpec struct {
	kind     model.SectionKind
	patterns []string
}

type rule struct {
	kind model.SectionKind
	res  []*regexp.Regexp
}

// Patterns is a compiled, ordered header rule table.
type Patterns struct {
	rules []rule
}

// DefaultPatterns compiles the builtin rule table.
func DefaultPatterns() *Patterns {
	p, err := compile(defaultRules)
	if err != nil {
		// The builtin table is static; a compile failure is a bug.
		panic(err)
	}
	return p
}

// patternsFile is the yaml shape of a user rule file. Listed patterns
// extend the builtin table; new kinds are allowed and classify as
// unknown.
type patternsFile struct {
	Sections map[string][]string `yaml:"sections"`
}

// LoadPatterns reads a yaml rule file and merges it over the builtin
// table. An empty path returns the builtin table unchanged.
func LoadPatterns(path string) (*Patterns, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "structure: read patterns file %s", path)
	}
	var pf patternsFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, eris.Wrapf(err, "structure: parse patterns file %s", path)
	}

	specs := make([]ruleSpec, len(defaultRules))
	copy(specs, defaultRules)

	for name, patterns := range pf.Sections {
		kind := model.SectionKind(name)
		found := false
		for i := range specs {
			if specs[i].kind == kind {
				merged := make([]string, 0, len(specs[i].patterns)+len(patterns))
				merged = append(merged, specs[i].patterns...)
				merged = append(merged, patterns...)
				specs[i].patterns = merged
				found = true
				break
			}
		}
		if !found {
			specs = append(specs, ruleSpec{kind: kind, patterns: patterns})
		}
	}

	p, err := compile(specs)
	if err != nil {
		return nil, eris.Wrapf(err, "structure: compile patterns file %s", path)
	}
	return p, nil
}

func compile(specs []ruleSpec) (*Patterns, error) {
	rules := make([]rule, 0, len(specs))
	for _, spec := range specs {
		r := rule{kind: spec.kind, res: make([]*regexp.Regexp, 0, len(spec.patterns))}
		for _, pat := range spec.patterns {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				return nil, eris.Wrapf(err, "structure: pattern %q for %s", pat, spec.kind)
			}
			r.res = append(r.res, re)
		}
		rules = append(rules, r)
	}
	return &Patterns{rules: rules}, nil
}

// Match reports the kind a header line resolves to. The line is tried
// both with and without its leading numbering.
func (p *Patterns) Match(line string) (model.SectionKind, bool) {
	lower := strings.ToLower(strings.TrimSpace(line))
	if lower == "" {
		return "", false
	}
	clean := leadingNumbering.ReplaceAllString(lower, "")

	for _, r := range p.rules {
		for _, re := range r.res {
			if re.MatchString(clean) || re.MatchString(lower) {
				return r.kind, true
			}
		}
	}
	return "", false
}
