package chunker

import (
	"fmt"
	"unicode"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
)

// Separators ordered from "best" to "worst" for semantic meaning
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune(" "),
}

type Splitter struct {
	size    int
	overlap int
}

// New validates the window parameters. Sizes are counted in characters (runes).
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ragError.New(ragError.InvalidConfiguration, "chunker.New",
			fmt.Sprintf("invalid chunk window size=%d overlap=%d", size, overlap))
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split is New followed by Splitter.Split.
func Split(text string, size, overlap int) ([]docModel.Chunk, error) {
	s, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}

// Split cuts text into windows of at most size characters. Consecutive windows share at least
// overlap characters. Chunk.Start is the rune offset of each window, so dropping the part of every
// window that precedes the previous window's end and concatenating reconstructs text exactly.
func (s *Splitter) Split(text string) []docModel.Chunk {
	r := []rune(text)
	if len(r) == 0 {
		return nil
	}

	var chunks []docModel.Chunk
	pos := 0
	for {
		if len(r)-pos <= s.size {
			chunks = append(chunks, docModel.Chunk{Ordinal: len(chunks), Text: string(r[pos:]), Start: pos})
			return chunks
		}

		end := s.cutPoint(r, pos)
		chunks = append(chunks, docModel.Chunk{Ordinal: len(chunks), Text: string(r[pos:end]), Start: pos})
		pos = s.nextStart(r, pos, end)
	}
}

// cutPoint picks the end of the window starting at pos: just after the best separator
// in the second half of the window, or a hard cut at pos+size.
func (s *Splitter) cutPoint(r []rune, pos int) int {
	hardEnd := pos + s.size
	minEnd := pos + max(s.size/2, s.overlap+1)

	for _, sep := range separators {
		if idx := lastIndex(r, sep, minEnd-len(sep), hardEnd-len(sep)); idx >= 0 {
			return idx + len(sep)
		}
	}
	return hardEnd
}

// nextStart backs off overlap characters from end, then snaps back to the start of a word
// if one is close by. Always > pos.
func (s *Splitter) nextStart(r []rune, pos, end int) int {
	target := end - s.overlap
	if s.overlap == 0 {
		return target
	}
	floor := max(pos+1, target-s.overlap/2)
	for i := target; i >= floor; i-- {
		if unicode.IsSpace(r[i-1]) && !unicode.IsSpace(r[i]) {
			return i
		}
	}
	return target
}

// lastIndex returns the last index i in [from, to] where sep starts, or -1.
func lastIndex(r []rune, sep []rune, from, to int) int {
	if from < 0 {
		from = 0
	}
	for i := min(to, len(r)-len(sep)); i >= from; i-- {
		match := true
		for j := range sep {
			if r[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
