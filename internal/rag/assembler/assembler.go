package assembler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
)

const separator = "\n"

// Assemble joins match texts in rank order into at most budget characters (runes, separators included).
// It stops before the first match that would not fit whole. A top match larger than the budget
// is cut down and used alone.
func Assemble(matches []docModel.RetrievalMatch, budget int) (string, error) {
	if budget <= 0 {
		return "", ragError.New(ragError.InvalidConfiguration, "assembler.Assemble", fmt.Sprintf("context budget must be positive, got %d", budget))
	}
	if len(matches) == 0 {
		return "", nil
	}

	first := matches[0].Text
	if utf8.RuneCountInString(first) > budget {
		return truncate(first, budget), nil
	}

	var sb strings.Builder
	used := 0
	sepLen := utf8.RuneCountInString(separator)
	for i, m := range matches {
		n := utf8.RuneCountInString(m.Text)
		if i > 0 {
			n += sepLen
		}
		if used+n > budget {
			break
		}
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(m.Text)
		used += n
	}
	return sb.String(), nil
}

// truncate cuts text to at most limit runes, backing up to a word break when one is near the end.
func truncate(text string, limit int) string {
	r := []rune(text)[:limit]
	for i := len(r) - 1; i >= limit/2; i-- {
		if unicode.IsSpace(r[i]) {
			return strings.TrimRightFunc(string(r[:i]), unicode.IsSpace)
		}
	}
	return string(r)
}
