package docx

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// normalize turns the XML of one document part into text/template source.
func normalize(src string) (string, error) {
	return hoistStructural(repairActions(src))
}

type scanState int

const (
	stText   scanState = iota
	stOpen             // seen a single '{'
	stAction           // inside {{ ... }}
	stClose            // inside an action, seen a single '}'
)

// repairActions joins actions that Word split across runs. Braces are matched
// on character data only, so "{" and "{" in two different runs still open an
// action. Markup inside an action is discarded.
func repairActions(src string) string {
	var (
		out    strings.Builder
		held   strings.Builder
		action strings.Builder
		state  = stText
	)
	out.Grow(len(src))

	for i := 0; i < len(src); {
		if src[i] == '<' {
			end := strings.IndexByte(src[i:], '>')
			if end < 0 {
				end = len(src) - i - 1
			}
			tag := src[i : i+end+1]
			i += end + 1
			switch state {
			case stText:
				out.WriteString(tag)
			case stOpen:
				held.WriteString(tag)
			}
			continue
		}

		c := src[i]
		i++
		switch state {
		case stText:
			if c == '{' {
				state = stOpen
				continue
			}
			out.WriteByte(c)
		case stOpen:
			if c == '{' {
				held.Reset()
				action.Reset()
				state = stAction
				continue
			}
			out.WriteByte('{')
			out.WriteString(held.String())
			out.WriteByte(c)
			held.Reset()
			state = stText
		case stAction:
			if c == '}' {
				state = stClose
				continue
			}
			action.WriteByte(c)
		case stClose:
			if c == '}' {
				out.WriteString(rewriteAction(action.String()))
				state = stText
				continue
			}
			action.WriteByte('}')
			action.WriteByte(c)
			state = stAction
		}
	}

	switch state {
	case stOpen:
		out.WriteByte('{')
		out.WriteString(held.String())
	case stAction:
		out.WriteString("{{" + unescapeAction(action.String()))
	case stClose:
		out.WriteString("{{" + unescapeAction(action.String()) + "}")
	}
	return out.String()
}

var actionUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#34;", `"`,
	"&apos;", "'",
	"&#39;", "'",
	"&amp;", "&",
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‘", "'",
	"’", "'",
)

func unescapeAction(s string) string {
	return actionUnescaper.Replace(s)
}

// rewriteAction restores one action and pipes output actions through xml.
func rewriteAction(raw string) string {
	raw = unescapeAction(raw)
	a := parseAction(raw)
	if !a.output() {
		return "{{" + raw + "}}"
	}
	a.body += " | xml"
	return a.String()
}

// action is the inside of {{ ... }}.
type action struct {
	trimLeft  bool
	trimRight bool
	// tag is "p" or "tr" for structural actions.
	tag  string
	body string
}

func parseAction(raw string) action {
	var a action
	if len(raw) > 1 && raw[0] == '-' && isSpace(raw[1]) {
		a.trimLeft = true
		raw = raw[1:]
	}
	if n := len(raw); n > 1 && raw[n-1] == '-' && isSpace(raw[n-2]) {
		a.trimRight = true
		raw = raw[:n-1]
	}
	a.body = strings.TrimSpace(raw)
	for _, tag := range []string{"p", "tr"} {
		if rest, ok := strings.CutPrefix(a.body, tag); ok && rest != "" && isSpace(rest[0]) {
			a.tag = tag
			a.body = strings.TrimSpace(rest)
			break
		}
	}
	return a
}

var (
	assignment = regexp.MustCompile(`^\$\w*\s*:?=`)

	keywords = map[string]bool{
		"if": true, "else": true, "end": true, "range": true, "with": true,
		"define": true, "template": true, "block": true, "break": true, "continue": true,
	}
)

// output reports whether the action prints a value.
func (a action) output() bool {
	if a.body == "" || strings.HasPrefix(a.body, "/*") || assignment.MatchString(a.body) {
		return false
	}
	word := a.body
	if k := strings.IndexFunc(word, unicode.IsSpace); k >= 0 {
		word = word[:k]
	}
	return !keywords[word]
}

func (a action) String() string {
	var b strings.Builder
	b.WriteString("{{")
	if a.trimLeft {
		b.WriteByte('-')
	}
	b.WriteByte(' ')
	if a.tag != "" {
		b.WriteString(a.tag + " ")
	}
	b.WriteString(a.body)
	b.WriteByte(' ')
	if a.trimRight {
		b.WriteByte('-')
	}
	b.WriteString("}}")
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// hoistStructural replaces the paragraph or table row around each {{p ...}}
// and {{tr ...}} action with the bare action. Only the first structural
// action of an element survives.
func hoistStructural(s string) (string, error) {
	for pos := 0; ; {
		i := strings.Index(s[pos:], "{{")
		if i < 0 {
			return s, nil
		}
		i += pos
		j := strings.Index(s[i:], "}}")
		if j < 0 {
			return s, nil
		}
		j += i + 2

		a := parseAction(s[i+2 : j-2])
		if a.tag == "" {
			pos = j
			continue
		}
		start, end, ok := enclosing(s, i, a.tag)
		if !ok {
			return "", fmt.Errorf("{{%s %s}} is not inside a <w:%s> element", a.tag, a.body, a.tag)
		}
		a.tag = ""
		repl := a.String()
		s = s[:start] + repl + s[end:]
		pos = start + len(repl)
	}
}

const (
	tagOther = iota
	tagOpen
	tagClose
)

// enclosing finds the innermost <w:name> element containing pos and returns
// the offsets of its start tag and the end of its end tag.
func enclosing(s string, pos int, name string) (start, end int, ok bool) {
	var stack []int
	for i := 0; i < pos; i++ {
		k := strings.IndexByte(s[i:pos], '<')
		if k < 0 {
			break
		}
		i += k
		switch tagKind(s[i:], name) {
		case tagOpen:
			stack = append(stack, i)
		case tagClose:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 {
		return 0, 0, false
	}
	start = stack[len(stack)-1]

	closing := "</w:" + name + ">"
	depth := 1
	for i := pos; i < len(s); i++ {
		k := strings.IndexByte(s[i:], '<')
		if k < 0 {
			break
		}
		i += k
		switch tagKind(s[i:], name) {
		case tagOpen:
			depth++
		case tagClose:
			depth--
			if depth == 0 {
				return start, i + len(closing), true
			}
		}
	}
	return 0, 0, false
}

// tagKind classifies the tag at the start of s. <w:pPr> and <w:trPr> are
// distinct elements and self-closing tags open nothing.
func tagKind(s, name string) int {
	if strings.HasPrefix(s, "</w:"+name+">") {
		return tagClose
	}
	open := "<w:" + name
	if !strings.HasPrefix(s, open) || len(s) == len(open) {
		return tagOther
	}
	switch s[len(open)] {
	case '>':
		return tagOpen
	case ' ', '\t', '\n', '\r':
		end := strings.IndexByte(s, '>')
		if end > 0 && s[end-1] == '/' {
			return tagOther
		}
		return tagOpen
	}
	return tagOther
}
