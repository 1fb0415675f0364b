package parser

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter separates a leading YAML block delimited by "---" lines.
// It returns the decoded block, the remaining body and the number of lines
// the block occupied. Input without a closing delimiter has no frontmatter.
func splitFrontmatter(src []byte) (map[string]any, []byte, int, error) {
	const delim = "---"
	if !bytes.HasPrefix(src, []byte(delim+"\n")) {
		return nil, src, 0, nil
	}
	rest := src[len(delim)+1:]
	lines := 1
	for off := 0; off < len(rest); {
		end := bytes.IndexByte(rest[off:], '\n')
		next := len(rest)
		line := rest[off:]
		if end >= 0 {
			line = rest[off : off+end]
			next = off + end + 1
		}
		lines++
		if string(bytes.TrimRight(line, " \t")) == delim {
			var fm map[string]any
			if err := yaml.Unmarshal(rest[:off], &fm); err != nil {
				return nil, nil, 0, err
			}
			return fm, rest[next:], lines, nil
		}
		off = next
	}
	return nil, src, 0, nil
}
