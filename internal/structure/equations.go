package structure

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quillsoft/paperscope/internal/model"
)

// eqNumberRe matches a display equation carrying its printed number,
// "loss = alpha * kl + beta * ce   (3)".
var eqNumberRe = regexp.MustCompile(`^(.*?)\s*\((\d+)\)\s*$`)

// mathIndicatorRes each vote that a line is mathematics. The operator
// pattern spells out "not followed by a word character" because RE2 has
// no lookahead.
var mathIndicatorRes = []*regexp.Regexp{
	regexp.MustCompile(`[=+*/^](?:[^0-9A-Za-z_]|$)`),
	regexp.MustCompile(`\\[a-zA-Z]+\{`),
	regexp.MustCompile(`[α-ωΑ-Ω]`),
	regexp.MustCompile(`\b\d+\.\d+\b`),
	regexp.MustCompile(`\b[a-z]_\{[^}]+\}`),
	regexp.MustCompile(`\^\{[^}]+\}`),
	regexp.MustCompile(`\\frac|\\sum|\\int|\\prod|\\log|\\exp`),
	regexp.MustCompile(`∈|∉|⊂|⊆|∪|∩|≤|≥|≠`),
	regexp.MustCompile(`\b[a-zA-Z]\s*=\s*`),
}

// proseWords flags lines that are ordinary English despite containing
// an operator or a decimal, like "accuracy improved by 2.3 points".
var proseWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "should",
		"could", "may", "might", "must", "can", "of", "in", "on", "at", "to",
		"for", "with", "by", "from", "as", "and", "or", "but", "if", "when",
		"where", "why", "how", "which", "that", "this", "these", "those",
		"demonstrating", "introduced", "tasks", "exceptional", "proficiency",
		"achieving", "performance", "results", "shows", "across", "compared",
	} {
		proseWords[w] = struct{}{}
	}
}

// collectEquations scans positioned lines for display equations. A line
// ending in "(n)" with a plausible mathematical body is a numbered
// equation; a centered line with strong math signals counts without a
// number. Ids run eq_1..eq_n in reading order.
func collectEquations(pages []pageData) []model.Equation {
	var out []model.Equation
	for _, pd := range pages {
		for _, ln := range pd.lines {
			text := strings.TrimSpace(ln.Text)
			if text == "" {
				continue
			}

			if m := eqNumberRe.FindStringSubmatch(text); m != nil {
				expr := strings.TrimSpace(m[1])
				if len([]rune(expr)) > 10 && isLikelyEquation(expr) {
					out = append(out, model.Equation{
						ID:     fmt.Sprintf("eq_%d", len(out)+1),
						Page:   pd.page,
						Text:   expr,
						Number: "(" + m[2] + ")",
						Region: ln.Region,
					})
					continue
				}
			}

			if ln.Centered && len([]rune(text)) > 3 && mathScore(text) >= 2 && isLikelyEquation(text) {
				out = append(out, model.Equation{
					ID:     fmt.Sprintf("eq_%d", len(out)+1),
					Page:   pd.page,
					Text:   text,
					Region: ln.Region,
				})
			}
		}
	}
	return out
}

func mathScore(text string) int {
	score := 0
	for _, re := range mathIndicatorRes {
		if re.MatchString(text) {
			score++
		}
	}
	return score
}

// isLikelyEquation rejects prose, then requires at least one math
// indicator. Long lines where common English words dominate are prose
// no matter what operators they carry.
func isLikelyEquation(text string) bool {
	words := strings.Fields(text)
	if len(words) > 5 {
		common := 0
		for _, w := range words {
			if _, ok := proseWords[strings.ToLower(w)]; ok {
				common++
			}
		}
		if float64(common)/float64(len(words)) > 0.5 {
			return false
		}
	}
	return mathScore(text) > 0
}
