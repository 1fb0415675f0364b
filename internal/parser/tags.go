package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var tagLineRe = regexp.MustCompile(`^ {0,3}\{%\s*(/?)([A-Za-z][\w-]*)(.*?)(/?)\s*%\}\s*$`)

type tagToken struct {
	name        string
	closing     bool
	selfClosing bool
	attrs       map[string]any
}

// parseTagLine reports whether line is a tag line and, if so, decodes it.
func parseTagLine(line string) (tagToken, bool, error) {
	m := tagLineRe.FindStringSubmatch(strings.TrimRight(line, "\n"))
	if m == nil {
		return tagToken{}, false, nil
	}
	tok := tagToken{
		name:        m[2],
		closing:     m[1] == "/",
		selfClosing: m[4] == "/",
	}
	if tok.closing && tok.selfClosing {
		return tok, true, fmt.Errorf("tag %q is both closing and self-closing", tok.name)
	}
	attrs, err := parseAttributes(m[3])
	if err != nil {
		return tok, true, fmt.Errorf("tag %q: %w", tok.name, err)
	}
	if tok.closing && len(attrs) > 0 {
		return tok, true, fmt.Errorf("closing tag %q takes no attributes", tok.name)
	}
	tok.attrs = attrs
	return tok, true, nil
}

// parseAttributes decodes name=value pairs. Values are double or single
// quoted strings, numbers, true, false or null.
func parseAttributes(s string) (map[string]any, error) {
	var attrs map[string]any
	i := 0
	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			return attrs, nil
		}
		start := i
		for i < len(s) && isNameByte(s[i]) {
			i++
		}
		name := s[start:i]
		if name == "" {
			return nil, fmt.Errorf("unexpected %q", s[i:])
		}
		if i >= len(s) || s[i] != '=' {
			return nil, fmt.Errorf("attribute %q has no value", name)
		}
		i++
		v, n, err := parseValue(s[i:])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		i += n
		if i < len(s) && !isSpace(s[i]) {
			return nil, fmt.Errorf("attribute %q: unexpected %q after value", name, s[i:])
		}
		if attrs == nil {
			attrs = make(map[string]any)
		}
		if _, dup := attrs[name]; dup {
			return nil, fmt.Errorf("duplicate attribute %q", name)
		}
		attrs[name] = v
	}
}

func parseValue(s string) (any, int, error) {
	if s == "" || isSpace(s[0]) {
		return nil, 0, errors.New("missing value")
	}
	if q := s[0]; q == '"' || q == '\'' {
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			c := s[i]
			switch {
			case c == '\\' && i+1 < len(s):
				i++
				switch s[i] {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				default:
					b.WriteByte(s[i])
				}
			case c == q:
				return b.String(), i + 1, nil
			default:
				b.WriteByte(c)
			}
		}
		return nil, 0, errors.New("unterminated string")
	}

	end := strings.IndexAny(s, " \t")
	if end < 0 {
		end = len(s)
	}
	tok := s[:end]
	switch tok {
	case "true":
		return true, end, nil
	case "false":
		return false, end, nil
	case "null":
		return nil, end, nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, end, nil
	}
	return nil, 0, fmt.Errorf("unquoted value %q", tok)
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

func isNameByte(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
