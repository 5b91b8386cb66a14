// Package chunker slices a function's source into token-bounded,
// overlap-free chunks with absolute file offsets preserved. It is
// generalized from the teacher's markdown structural chunker
// (internal/chunking/markdown.go) down to a line-oriented algorithm
// that has no notion of markdown blocks — only lines, blanks, and a
// token estimate.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

const (
	DefaultMaxTokens = 180
	DefaultMinTokens = 60
	FloorMaxTokens   = 40
	FloorMinTokens   = 20
)

// Config bounds chunk size. Validate clamps to the hard floors and
// fills in defaults the same way the teacher's ChunkerConfig.validate
// does for markdown chunking.
type Config struct {
	MaxTokens int
	MinTokens int
}

// Validate fills in defaults and enforces the floor/ordering
// constraints from spec §4.2.
func (c *Config) Validate() error {
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MinTokens == 0 {
		c.MinTokens = DefaultMinTokens
	}
	if c.MaxTokens < FloorMaxTokens {
		c.MaxTokens = FloorMaxTokens
	}
	if c.MinTokens < FloorMinTokens {
		c.MinTokens = FloorMinTokens
	}
	if c.MinTokens > c.MaxTokens {
		return fmt.Errorf("chunker: minTokens (%d) must be <= maxTokens (%d)", c.MinTokens, c.MaxTokens)
	}
	return nil
}

var wordRegex = regexp.MustCompile(`\S+`)

// estimateTokenCount is a whitespace tokenizer: it need not be
// model-accurate, only monotone with respect to model tokens. Mirrors
// the teacher's estimateTokenCount but drops the markdown/Chinese
// weighting — source code is scored by whitespace-separated token
// runs only.
func estimateTokenCount(s string) int {
	return len(wordRegex.FindAllString(s, -1))
}

type lineInfo struct {
	text     string
	startOff int // byte offset of this line's first rune, relative to fn source
	endOff   int // byte offset just past this line's last rune (excludes newline)
	lineNum  int // 0-based within the function
}

func splitLines(source string) []lineInfo {
	var lines []lineInfo
	off := 0
	lineNum := 0
	for _, raw := range strings.SplitAfter(source, "\n") {
		if raw == "" {
			continue
		}
		trimmed := strings.TrimSuffix(raw, "\n")
		lines = append(lines, lineInfo{
			text:     trimmed,
			startOff: off,
			endOff:   off + len(trimmed),
			lineNum:  lineNum,
		})
		off += len(raw)
		lineNum++
	}
	return lines
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Chunk slices fn.Source into chunks per the five-step algorithm in
// spec §4.2: walk lines accumulating tokens, flush on maxTokens or a
// blank-line boundary, merge too-small flushes into the previous
// chunk, skip leading blanks when starting fresh, and force-flush at
// end of input.
func Chunk(fn codegraph.Function, cfg Config) ([]codegraph.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lines := splitLines(fn.Source)
	if len(lines) == 0 {
		return nil, nil
	}

	var chunks []codegraph.Chunk
	var acc []lineInfo
	accTokens := 0

	flush := func() {
		if len(acc) == 0 {
			return
		}
		first, last := acc[0], acc[len(acc)-1]
		startCol := fn.StartCol
		if len(chunks) > 0 || first.lineNum != 0 {
			startCol = leadingIndent(first.text)
		}
		endCol := last.endOff - last.startOff
		if last.lineNum == lines[len(lines)-1].lineNum {
			endCol = fn.EndCol
		}

		text := joinLines(acc)
		start := fn.Start + first.startOff
		end := fn.Start + last.endOff

		if accTokens < cfg.MinTokens && len(chunks) > 0 {
			prev := &chunks[len(chunks)-1]
			prev.End = end
			prev.EndLine = fn.StartLine + last.lineNum
			prev.EndCol = endCol
			prev.Text = prev.Text + "\n" + text
			prev.TokenCount += accTokens
			acc = acc[:0]
			accTokens = 0
			return
		}

		chunks = append(chunks, codegraph.Chunk{
			FnID:       fn.FnID,
			Index:      len(chunks),
			Start:      start,
			End:        end,
			StartLine:  fn.StartLine + first.lineNum,
			EndLine:    fn.StartLine + last.lineNum,
			StartCol:   startCol,
			EndCol:     endCol,
			TokenCount: accTokens,
			Text:       text,
		})
		acc = acc[:0]
		accTokens = 0
	}

	for _, ln := range lines {
		if len(acc) == 0 && isBlank(ln.text) {
			continue // skip leading blanks when starting a fresh chunk
		}
		blankBoundary := isBlank(ln.text) && len(acc) > 0
		if blankBoundary {
			flush()
			continue
		}
		acc = append(acc, ln)
		accTokens += estimateTokenCount(ln.text)
		if accTokens >= cfg.MaxTokens {
			flush()
		}
	}
	flush() // force-flush remainder regardless of minTokens

	for i := range chunks {
		chunks[i].ChunkID = fmt.Sprintf("%s:chunk-%d", fn.FnID, chunks[i].Index)
	}
	return chunks, nil
}

func joinLines(lines []lineInfo) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}

func leadingIndent(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}
