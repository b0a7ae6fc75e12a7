package aggregate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/model"
)

func TestDigest_FieldOrder(t *testing.T) {
	a := NewAggregator(nil, config.AggregateConfig{})

	got := a.digest(1, twoAnalyses()[0], 1500)

	lines := strings.Split(got, "\n")
	require.GreaterOrEqual(t, len(lines), 9)
	assert.Equal(t, "Paper 1:", lines[0])
	assert.Equal(t, "Document id: resnet", lines[1])
	assert.Equal(t, "Title: Deep Residual Learning for Image Recognition", lines[2])
	assert.Equal(t, "Authors: Kaiming He, Xiangyu Zhang", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "Abstract: We present"))
	assert.Equal(t, "Keywords: residual learning, deep networks", lines[5])
	assert.True(t, strings.HasPrefix(lines[6], "Background: "))
	assert.True(t, strings.HasPrefix(lines[7], "Technology: "))
	assert.True(t, strings.HasPrefix(lines[8], "Experiments: "))
}

func TestDigest_OmitsEmptySlots(t *testing.T) {
	a := NewAggregator(nil, config.AggregateConfig{})
	an := &model.DocumentAnalysis{
		Document: &model.Document{ID: "bare", Title: "Untitled"},
		Findings: map[model.Dimension]model.DimensionFinding{
			model.DimensionBackground: {DocumentID: "bare", Dimension: model.DimensionBackground, Confidence: model.ConfidenceNone},
		},
	}

	got := a.digest(2, an, 1500)

	assert.Equal(t, "Paper 2:\nDocument id: bare\nTitle: Untitled", got)
	assert.NotContains(t, got, "Authors:")
	assert.NotContains(t, got, "Abstract:")
	assert.NotContains(t, got, "Background:")
}

func TestDigest_CapsAbstractAndBlock(t *testing.T) {
	long := strings.Repeat("a", 520)
	an := &model.DocumentAnalysis{
		Document: &model.Document{ID: "long", Title: "Long", Abstract: long},
	}

	a := NewAggregator(nil, config.AggregateConfig{})
	got := a.digest(1, an, 1500)
	assert.Contains(t, got, "Abstract: "+strings.Repeat("a", 500))
	assert.NotContains(t, got, strings.Repeat("a", 501))

	capped := NewAggregator(nil, config.AggregateConfig{MaxDocChars: 40})
	got = capped.digest(1, an, 1500)
	assert.Len(t, []rune(got), 40)
	assert.True(t, strings.HasPrefix(got, "Paper 1:\nDocument id: long\n"))
}
