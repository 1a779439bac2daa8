// Package docx renders Word (.docx) templates written with text/template
// actions.
//
// A template is an ordinary Word document whose text contains actions such as
// {{ .nombreproyecto }} or {{ range .estudiantes }}. Word splits typed text
// into runs at will, so before parsing, every action is collapsed back into a
// single piece of text: markup between "{{" and "}}" is dropped, and the
// entities and typographic quotes Word substitutes are undone.
//
// Two action prefixes operate on document structure rather than text:
//
//	{{p if .mostrar}} ... {{p end}}           replaces the enclosing <w:p>
//	{{tr range .estudiantes}} ... {{tr end}}  replaces the enclosing <w:tr>
//
// so a range can repeat table rows without leaving empty paragraphs behind.
//
// Output actions are piped through the xml function, which escapes the value,
// turns newlines into line breaks and renders missing values as empty text.
// The sprig function library is available, except for environment access.
package docx
