package extract

import (
	"encoding/json"
	"slices"
	"strings"
)

// position is the line and rune column of a string's opening quote in the
// normalized document, as yaml.Node reports them.
type position struct {
	line, column int
}

// hostString records where a descriptor string value sits in the file as
// written.
type hostString struct {
	// line is the physical line of the opening quote.
	line int
	// breaks are the offsets in the decoded value of line breaks that were
	// literal in the file. Escaped \n sequences are not listed.
	breaks []int
}

// lineAt returns the physical line holding decoded offset off.
func (h hostString) lineAt(off int) int {
	n, _ := slices.BinarySearch(h.breaks, off)
	return h.line + n
}

// lineMap returns the physical line of each line of text, which starts at
// decoded offset off, or nil when every line break in text is literal.
func (h hostString) lineMap(off int, text string) []int {
	if !strings.Contains(text, "\n") {
		return nil
	}
	lines := []int{h.lineAt(off)}
	linear := true
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		next := lines[len(lines)-1]
		if _, literal := slices.BinarySearch(h.breaks, off+i); literal {
			next++
		} else {
			linear = false
		}
		lines = append(lines, next)
	}
	if linear {
		return nil
	}
	return lines
}

// normalize escapes literal line breaks and tabs inside string values so the
// document decodes as strict JSON, and records the physical layout of every
// string keyed by its position in the returned document.
func normalize(data []byte) ([]byte, map[position]hostString) {
	var (
		out     = make([]byte, 0, len(data)+64)
		strs    = map[position]hostString{}
		line    = 1
		col     = 1
		phys    = 1
		inStr   bool
		key     position
		cur     hostString
		seg     []byte
		decoded int
	)
	advance := func(c byte) {
		if c&0xC0 != 0x80 {
			col++
		}
	}
	for i := 0; i < len(data); i++ {
		c := data[i]
		if !inStr {
			out = append(out, c)
			switch c {
			case '\n':
				line++
				phys++
				col = 1
			case '"':
				inStr = true
				key = position{line, col}
				cur = hostString{line: phys}
				seg = seg[:0]
				decoded = 0
				col++
			default:
				advance(c)
			}
			continue
		}

		switch c {
		case '"':
			out = append(out, c)
			col++
			inStr = false
			strs[key] = cur
		case '\\':
			out = append(out, c)
			seg = append(seg, c)
			col++
			if i+1 < len(data) && data[i+1] != '\n' && data[i+1] != '\r' {
				i++
				out = append(out, data[i])
				seg = append(seg, data[i])
				advance(data[i])
			}
		case '\r', '\n':
			if c == '\r' {
				if i+1 >= len(data) || data[i+1] != '\n' {
					out = append(out, '\\', 'r')
					seg = append(seg, '\\', 'r')
					col += 2
					continue
				}
				i++
			}
			decoded += decodedLen(seg)
			cur.breaks = append(cur.breaks, decoded)
			decoded++
			seg = seg[:0]
			phys++
			out = append(out, '\\', 'n')
			col += 2
		case '\t':
			out = append(out, '\\', 't')
			seg = append(seg, '\\', 't')
			col += 2
		default:
			out = append(out, c)
			seg = append(seg, c)
			advance(c)
		}
	}
	return out, strs
}

// decodedLen is the byte length of the JSON string body raw once decoded.
func decodedLen(raw []byte) int {
	var s string
	quoted := make([]byte, 0, len(raw)+2)
	quoted = append(quoted, '"')
	quoted = append(quoted, raw...)
	quoted = append(quoted, '"')
	if err := json.Unmarshal(quoted, &s); err != nil {
		return len(raw)
	}
	return len(s)
}
