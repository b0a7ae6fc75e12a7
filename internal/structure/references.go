package structure

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/quillsoft/paperscope/internal/model"
)

var (
	refBracketRe = regexp.MustCompile(`^\[(\d+)\]\s*(.*)`)
	refDotRe     = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
	refYearRe    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// minReferenceLen drops fragments too short to be a citation, usually
// column breaks or page numbers that matched the entry pattern.
const minReferenceLen = 10

// referencesFrom parses the bibliography out of the references section.
// Entries start with "[n]" or "n." at a line head; following lines are
// continuations of the current entry.
func referencesFrom(doc *model.Document) []model.Reference {
	content := doc.ContentByKind(model.KindReferences)
	if content == "" {
		return nil
	}

	var refs []model.Reference
	var cur *model.Reference
	flush := func() {
		if cur != nil && len(cur.Text) > minReferenceLen {
			cur.Text = strings.TrimSpace(cur.Text)
			cur.Year = yearOf(cur.Text)
			refs = append(refs, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := refBracketRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &model.Reference{Index: mustAtoi(m[1]), Text: m[2]}
			continue
		}
		if m := refDotRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &model.Reference{Index: mustAtoi(m[1]), Text: m[2]}
			continue
		}
		if cur != nil {
			cur.Text += " " + line
		}
	}
	flush()
	return refs
}

func yearOf(text string) int {
	if m := refYearRe.FindString(text); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	return 0
}

// mustAtoi converts digits already vetted by a \d+ capture.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
