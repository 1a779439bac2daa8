package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"testing"
)

// TestDocument wraps body in a minimal w:document root.
func TestDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
}

// TestParagraph returns a single-run paragraph holding text.
func TestParagraph(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

// NewTestPackage assembles a minimal .docx whose document part holds body.
// extra adds or replaces parts by name.
func NewTestPackage(tb testing.TB, body string, extra map[string]string) []byte {
	tb.Helper()
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		DocumentPart:          TestDocument(body),
	}
	for k, v := range extra {
		files[k] = v
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			tb.Fatalf("creating %s: %v", name, err)
		}
		if _, err := io.WriteString(w, files[name]); err != nil {
			tb.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("closing package: %v", err)
	}
	return buf.Bytes()
}

// ReadTestPart returns the named part of a rendered package.
func ReadTestPart(tb testing.TB, data []byte, name string) string {
	tb.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		tb.Fatalf("opening package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		content, err := readEntry(f)
		if err != nil {
			tb.Fatalf("reading %s: %v", name, err)
		}
		return string(content)
	}
	tb.Fatalf("part %s not found", name)
	return ""
}
