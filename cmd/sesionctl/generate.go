package main

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sesiond/internal/calendar"
	"github.com/fyrsmithlabs/sesiond/internal/generator"
	httpapi "github.com/fyrsmithlabs/sesiond/internal/http"
)

type generateOptions struct {
	*rootOptions
	template  string
	session   string
	class     string
	startDate string
	out       string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a session-plan document",
		Long: `Render a session-plan document from a .docx template and two JSON documents.

Without --server the document is rendered locally. With --server the inputs are
uploaded to POST /generate; the template may then be omitted when the server
has a default one.

Examples:
  # Render locally into the current directory
  sesionctl generate --template plantilla.docx --session sesion.json \
    --class aula.json --start 2025-03-03

  # Render on a server using its default template
  sesionctl generate --server http://localhost:5000 --session sesion.json \
    --class aula.json --start 2025-03-03 --out ./planes/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.template, "template", "", "path to the .docx template")
	cmd.Flags().StringVar(&opts.session, "session", "", "path to the session-plan JSON (- for stdin)")
	cmd.Flags().StringVar(&opts.class, "class", "", "path to the class-roster JSON")
	cmd.Flags().StringVar(&opts.startDate, "start", "", "week start date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "output directory or file")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	if opts.session == "-" && opts.class == "-" {
		return fmt.Errorf("only one of --session and --class may read from stdin")
	}
	session, err := readInput(cmd, opts.session)
	if err != nil {
		return err
	}
	class, err := readInput(cmd, opts.class)
	if err != nil {
		return err
	}
	var tmpl []byte
	if opts.template != "" {
		if tmpl, err = readInput(cmd, opts.template); err != nil {
			return err
		}
	}

	var doc *generator.Document
	if opts.serverURL != "" {
		doc, err = generateRemote(cmd, opts, tmpl, session, class)
	} else {
		if tmpl == nil {
			return fmt.Errorf("--template is required when rendering locally")
		}
		doc, err = generateLocal(cmd, opts, tmpl, session, class)
	}
	if err != nil {
		return err
	}

	path := outputPath(opts.out, doc.Filename)
	if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s %s\n", okStyle.Render("✓"), path, dimStyle.Render("("+humanize.Bytes(uint64(len(doc.Content)))+")"))
	if doc.Period != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Period:"), doc.Period)
	}
	return nil
}

func generateLocal(cmd *cobra.Command, opts *generateOptions, tmpl, session, class []byte) (*generator.Document, error) {
	gen, err := generator.New()
	if err != nil {
		return nil, err
	}
	return gen.Generate(cmd.Context(), generator.Request{
		Template:  tmpl,
		Session:   session,
		Class:     class,
		StartDate: opts.startDate,
	})
}

func generateRemote(cmd *cobra.Command, opts *generateOptions, tmpl, session, class []byte) (*generator.Document, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if tmpl != nil {
		if err := writeFilePart(w, httpapi.FieldTemplate, filepath.Base(opts.template), tmpl); err != nil {
			return nil, err
		}
	}
	if err := writeFilePart(w, httpapi.FieldSession, "session.json", session); err != nil {
		return nil, err
	}
	if err := writeFilePart(w, httpapi.FieldClass, "class.json", class); err != nil {
		return nil, err
	}
	if err := w.WriteField(httpapi.FieldStartDate, opts.startDate); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	url := opts.url("/generate")
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := opts.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	// The server accepted the date, so it parses here too.
	period, _ := calendar.FormatPeriod(opts.startDate)
	return &generator.Document{
		Filename: attachmentName(resp.Header.Get("Content-Disposition")),
		Content:  content,
		Period:   period,
	}, nil
}

func writeFilePart(w *multipart.Writer, field, name string, data []byte) error {
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}
	return nil
}

// attachmentName extracts the file name from a Content-Disposition header.
func attachmentName(header string) string {
	_, params, err := mime.ParseMediaType(header)
	if err == nil {
		if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
			return name
		}
	}
	return "sesion.docx"
}

// outputPath resolves --out: an existing directory or a path ending in a
// separator receives name, anything else is used as the file path.
func outputPath(out, name string) string {
	if out == "" {
		return name
	}
	if strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator)) {
		return filepath.Join(out, name)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}
