// Package sanitize builds safe names for generated documents and validates
// user-supplied file paths.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxProjectLength is the number of characters of the project name kept in
	// file names.
	MaxProjectLength = 50

	// DefaultProject is used when the project name is empty after sanitization.
	DefaultProject = "Proyecto"

	// Extension is the extension of generated documents.
	Extension = ".docx"
)

// Filename returns the download name of a generated session document:
//
//	sesion_<project>_<period>.docx
//
// The project name is cut to MaxProjectLength characters. Spaces and path
// separators become underscores, diacritics are folded to ASCII and anything
// else outside [A-Za-z0-9_-] is dropped.
//
// Examples:
//
//	Filename("Exploramos el huerto", "Del 3 al 7 de Marzo")
//	  -> "sesion_Exploramos_el_huerto_Del_3_al_7_de_Marzo.docx"
//	Filename("Educación/Arte", "Del 1 al 5 de Junio")
//	  -> "sesion_Educacion_Arte_Del_1_al_5_de_Junio.docx"
func Filename(project, period string) string {
	p := Component(truncate(project, MaxProjectLength))
	if p == "" {
		p = DefaultProject
	}
	name := "sesion_" + p
	if per := Component(period); per != "" {
		name += "_" + per
	}
	return name + Extension
}

// Component sanitizes one part of a file name.
func Component(s string) string {
	folded, _, err := transform.String(foldDiacritics(), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == ' ' || r == '/' || r == '\\':
			b.WriteByte('_')
		case r == '_' || r == '-':
			b.WriteRune(r)
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// foldDiacritics decomposes characters and removes combining marks, so
// "Educación" becomes "Educacion". A new transformer is built per call since
// transform chains keep state.
func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
