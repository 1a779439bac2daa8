package docx

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Markup that closes the current text element, inserts a break and reopens
// text, so a newline inside a value shows up as a line break in Word.
const (
	lineBreak = `</w:t><w:br/><w:t xml:space="preserve">`
	tabStop   = `</w:t><w:tab/><w:t xml:space="preserve">`
)

// Functions that read the process environment are not available to templates.
var blockedFuncs = []string{"env", "expandenv"}

var funcMap = sync.OnceValue(func() template.FuncMap {
	fm := sprig.TxtFuncMap()
	for _, name := range blockedFuncs {
		delete(fm, name)
	}
	fm["xml"] = xmlText
	return fm
})

// xmlText formats v as WordprocessingML character data. Nil renders as "".
func xmlText(v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		case '\n', '\r':
			b.WriteString(lineBreak)
		case '\t':
			b.WriteString(tabStop)
		default:
			if isXMLChar(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// isXMLChar reports whether r may appear in an XML 1.0 document.
func isXMLChar(r rune) bool {
	return r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}
