package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"text/template"
)

var (
	// ErrInvalidTemplate is returned when the upload is not a usable template:
	// not a zip package, no main document, or a template syntax error.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrRender is returned when executing a parsed template fails.
	ErrRender = errors.New("render failed")
)

// DocumentPart is the main document of a WordprocessingML package.
const DocumentPart = "word/document.xml"

// maxPartSize bounds the uncompressed size of a single templated part.
const maxPartSize = 64 << 20

// Parts that may contain actions. Everything else is copied unchanged.
var templatedParts = []string{
	DocumentPart,
	"word/header*.xml",
	"word/footer*.xml",
	"word/footnotes.xml",
	"word/endnotes.xml",
}

func isTemplated(name string) bool {
	for _, pattern := range templatedParts {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Template is a parsed .docx template. It is immutable and safe for
// concurrent use.
type Template struct {
	zr    *zip.Reader
	parts map[string]*template.Template
}

// Parse reads a .docx package and parses every templated part.
func Parse(data []byte) (*Template, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a .docx package: %v", ErrInvalidTemplate, err)
	}

	t := &Template{zr: zr, parts: make(map[string]*template.Template)}
	for _, f := range zr.File {
		if !isTemplated(f.Name) {
			continue
		}
		src, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidTemplate, f.Name, err)
		}
		text, err := normalize(string(src))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, f.Name, err)
		}
		tmpl, err := template.New(f.Name).Funcs(funcMap()).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		t.parts[f.Name] = tmpl
	}

	if _, ok := t.parts[DocumentPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidTemplate, DocumentPart)
	}
	return t, nil
}

// Parts returns the names of the templated parts, sorted.
func (t *Template) Parts() []string {
	names := make([]string, 0, len(t.parts))
	for name := range t.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute renders the template with data and writes the resulting package to w.
func (t *Template) Execute(w io.Writer, data any) error {
	zw := zip.NewWriter(w)
	for _, f := range t.zr.File {
		tmpl, ok := t.parts[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("%w: copying %s: %v", ErrRender, f.Name, err)
			}
			continue
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("%w: %v", ErrRender, err)
		}
		if err := wellFormed(buf.Bytes()); err != nil {
			return fmt.Errorf("%w: %s is not well-formed XML: %v", ErrRender, f.Name, err)
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRender, err)
		}
		if _, err := fw.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("%w: writing %s: %v", ErrRender, f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// Render is Execute into memory.
func (t *Template) Render(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("part exceeds %d bytes", maxPartSize)
	}
	return data, nil
}

func wellFormed(data []byte) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		if _, err := d.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
