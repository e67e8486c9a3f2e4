package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/mnemo/internal/model"
)

var (
	fencePattern   = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")
	sentenceBreaks = regexp.MustCompile(`[.!?]\s+`)
)

// CodeBlocks collects fenced code blocks across turns, in turn order.
// Each block keeps its language tag and the sentence that introduced
// it, so a later reader can tell what the code was for.
func CodeBlocks(turns []model.Turn) []model.CodeBlock {
	var blocks []model.CodeBlock
	for _, turn := range turns {
		for _, m := range fencePattern.FindAllStringSubmatchIndex(turn.Text, -1) {
			language := "text"
			if m[2] >= 0 && m[3] > m[2] {
				language = turn.Text[m[2]:m[3]]
			}
			content := strings.TrimSpace(turn.Text[m[4]:m[5]])
			if content == "" {
				continue
			}
			blocks = append(blocks, model.CodeBlock{
				Language:  language,
				Content:   content,
				Context:   blockContext(turn.Text[:m[0]]),
				TurnOrder: turn.Order,
			})
		}
	}
	return blocks
}

// blockContext returns the last sentence of the text preceding a code
// block, or "" when the block opens the turn.
func blockContext(before string) string {
	before = strings.TrimSpace(before)
	if before == "" {
		return ""
	}
	if i := strings.LastIndex(before, "\n"); i >= 0 {
		before = strings.TrimSpace(before[i+1:])
	}
	parts := sentenceBreaks.Split(before, -1)
	return strings.TrimSpace(parts[len(parts)-1])
}
