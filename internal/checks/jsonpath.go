package checks

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// span is a 1-based single-line position range inside a document.
type span struct {
	line, startCol, endCol int
}

// defaultSpan is used when a document position cannot be determined.
var defaultSpan = span{line: 1, startCol: 1, endCol: 1}

// splitJSONPath splits "$.a.b[0]['c d']" into ["a", "b", "0", "c d"].
func splitJSONPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("json path %q does not start with $", path)
	}
	rest := path[1:]
	var segs []string
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			if end == 0 {
				return nil, fmt.Errorf("empty segment in json path %q", path)
			}
			segs = append(segs, rest[:end])
			rest = rest[end:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated bracket in json path %q", path)
			}
			seg := rest[1:end]
			if len(seg) >= 2 && (seg[0] == '\'' || seg[0] == '"') && seg[len(seg)-1] == seg[0] {
				seg = seg[1 : len(seg)-1]
			}
			segs = append(segs, seg)
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("unexpected %q in json path %q", rest[0], path)
		}
	}
	return segs, nil
}

func quoted(n *yaml.Node) bool {
	return n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0
}

// sourceWidth approximates how many columns a scalar occupies in the source.
func sourceWidth(n *yaml.Node) int {
	w := len(n.Value)
	if quoted(n) {
		w += 2
	}
	if w == 0 {
		w = 1
	}
	return w
}

// locateJSONPath finds the source position of a JSON path inside a JSON or
// YAML document. For object members the span runs from the key to the end of
// a scalar value on the same line.
func locateJSONPath(data []byte, path string) (span, bool) {
	segs, err := splitJSONPath(path)
	if err != nil {
		return span{}, false
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return span{}, false
	}
	node := doc.Content[0]
	if len(segs) == 0 {
		return defaultSpan, true
	}

	var key *yaml.Node
	for _, seg := range segs {
		key = nil
		switch node.Kind {
		case yaml.MappingNode:
			var next *yaml.Node
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == seg {
					key, next = node.Content[i], node.Content[i+1]
					break
				}
			}
			if next == nil {
				return span{}, false
			}
			node = next
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node.Content) {
				return span{}, false
			}
			node = node.Content[idx]
		default:
			return span{}, false
		}
	}

	start := node
	if key != nil {
		start = key
	}
	s := span{line: start.Line, startCol: start.Column}
	if key != nil && quoted(key) {
		// point at the key name, not its opening quote
		s.startCol++
	}
	end := start
	if node.Kind == yaml.ScalarNode && node.Line == start.Line {
		end = node
	}
	s.endCol = end.Column + sourceWidth(end) - 1
	return s, true
}

// locateInFile reads path and resolves the JSON path inside it, falling
// back to line and column 1.
func locateInFile(path, jsonPath string) span {
	if jsonPath == "" {
		return defaultSpan
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultSpan
	}
	if s, ok := locateJSONPath(data, jsonPath); ok {
		return s
	}
	return defaultSpan
}
