// Package extract locates script fragments inside JSON descriptor files and
// standalone script files, recording where each fragment starts in its host.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	domainerrors "scriptlint/internal/core/errors"
	"scriptlint/internal/engine/script/parser"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls which files are read and how fragments are delimited.
type Options struct {
	DescriptorExtensions []string
	ScriptExtensions     []string
	OpenMarker           string
	CloseMarker          string
	// ScriptFields are glob patterns over field paths (pages[0].onLoad)
	// whose whole string value is a script, markers or not.
	ScriptFields []string
}

// DefaultOptions returns the stock extraction settings.
func DefaultOptions() Options {
	return Options{
		DescriptorExtensions: []string{".json"},
		ScriptExtensions:     []string{".js"},
		OpenMarker:           "<%",
		CloseMarker:          "%>",
	}
}

// Extractor turns host files into parser fragments. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	opts   Options
	fields []glob.Glob
}

// New validates opts and compiles the script field patterns.
func New(opts Options) (*Extractor, error) {
	if opts.OpenMarker == "" || opts.CloseMarker == "" {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "script markers must be non-empty")
	}
	if opts.OpenMarker == opts.CloseMarker {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "open and close markers must differ")
	}
	e := &Extractor{opts: opts}
	for _, p := range opts.ScriptFields {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, fmt.Sprintf("invalid script field pattern %q", p))
		}
		e.fields = append(e.fields, g)
	}
	return e, nil
}

// IsDescriptor reports whether path has a descriptor extension.
func (e *Extractor) IsDescriptor(path string) bool {
	return hasExt(path, e.opts.DescriptorExtensions)
}

// IsScript reports whether path has a standalone script extension.
func (e *Extractor) IsScript(path string) bool {
	return hasExt(path, e.opts.ScriptExtensions)
}

// Supports reports whether path is a descriptor or a script.
func (e *Extractor) Supports(path string) bool {
	return e.IsDescriptor(path) || e.IsScript(path)
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && slices.ContainsFunc(exts, func(x string) bool {
		return strings.EqualFold(x, ext)
	})
}

// ExtractFile reads path and extracts its fragments.
func (e *Extractor) ExtractFile(path string) ([]parser.Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeExtractError, "read host file"),
			domainerrors.CtxPath, path)
	}
	return e.Extract(path, data)
}

// Extract dispatches on the file extension of path.
func (e *Extractor) Extract(path string, data []byte) ([]parser.Fragment, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	switch {
	case e.IsScript(path):
		return Script(path, data), nil
	case e.IsDescriptor(path):
		return e.Descriptor(path, data)
	}
	return nil, domainerrors.AddContext(
		domainerrors.New(domainerrors.CodeExtractError, "unsupported file type"),
		domainerrors.CtxPath, path)
}

// Script returns a whole script file as one standalone fragment starting on
// line 1.
func Script(path string, data []byte) []parser.Fragment {
	return []parser.Fragment{{
		Text:          string(bytes.TrimPrefix(data, utf8BOM)),
		BaseLine:      1,
		HostFilePath:  path,
		HostFieldPath: "",
		Standalone:    true,
	}}
}

// Descriptor extracts the fragments embedded in the string values of a JSON
// descriptor, in document order. String values may span physical lines;
// fragment lines are mapped back to the lines they occupy in the file.
func (e *Extractor) Descriptor(path string, data []byte) ([]parser.Fragment, error) {
	data, strs := normalize(data)
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeExtractError, "decode descriptor"),
			domainerrors.CtxPath, path)
	}
	// JSON is a subset of YAML; the YAML node tree carries positions.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeExtractError, "decode descriptor"),
			domainerrors.CtxPath, path)
	}
	w := &walker{ex: e, path: path, strs: strs}
	for _, n := range doc.Content {
		w.walk(n, "")
	}
	return w.out, nil
}

type walker struct {
	ex   *Extractor
	path string
	strs map[position]hostString
	out  []parser.Fragment
}

func (w *walker) walk(n *yaml.Node, field string) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			child := key
			if field != "" {
				child = field + "." + key
			}
			w.walk(n.Content[i+1], child)
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			w.walk(item, field+"["+strconv.Itoa(i)+"]")
		}
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			w.scalar(n, field)
		}
	}
}

func (w *walker) scalar(n *yaml.Node, field string) {
	host, ok := w.strs[position{n.Line, n.Column}]
	if !ok {
		host = hostString{line: n.Line}
	}
	if w.ex.isScriptField(field) {
		w.out = append(w.out, w.fragment(host, 0, n.Value, field))
		return
	}
	for _, b := range Blocks(n.Value, w.ex.opts.OpenMarker, w.ex.opts.CloseMarker) {
		w.out = append(w.out, w.fragment(host, b.Offset, b.Text, field))
	}
}

func (w *walker) fragment(host hostString, off int, text, field string) parser.Fragment {
	return parser.Fragment{
		Text:          text,
		BaseLine:      host.lineAt(off),
		HostFilePath:  w.path,
		HostFieldPath: field,
		LineMap:       host.lineMap(off, text),
	}
}

func (e *Extractor) isScriptField(field string) bool {
	for _, g := range e.fields {
		if g.Match(field) {
			return true
		}
	}
	return false
}

// Block is one delimited script inside a string value.
type Block struct {
	Text string
	// Offset is the byte offset of Text in the value.
	Offset int
}

// Blocks returns the text between each open/close marker pair of s. An open
// marker without a matching close marker is left as plain text.
func Blocks(s, openMarker, closeMarker string) []Block {
	var out []Block
	pos := 0
	for {
		i := strings.Index(s[pos:], openMarker)
		if i < 0 {
			return out
		}
		start := pos + i + len(openMarker)
		j := strings.Index(s[start:], closeMarker)
		if j < 0 {
			return out
		}
		out = append(out, Block{Text: s[start : start+j], Offset: start})
		pos = start + j + len(closeMarker)
	}
}
