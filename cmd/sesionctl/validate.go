package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	httpapi "github.com/fyrsmithlabs/sesiond/internal/http"
	"github.com/fyrsmithlabs/sesiond/internal/plan"
	"github.com/fyrsmithlabs/sesiond/internal/schema"
)

// validationReport is the machine-readable outcome of validate.
type validationReport struct {
	File   string               `json:"file" yaml:"file"`
	Kind   schema.Kind          `json:"kind" yaml:"kind"`
	Valid  bool                 `json:"valid" yaml:"valid"`
	Fields []httpapi.FieldIssue `json:"fields,omitempty" yaml:"fields,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var (
		kind   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a JSON document against the session or class rules",
		Long: `Check a session-plan or class-roster JSON document and list every problem.

Exits with status 1 when the document is invalid.

Examples:
  sesionctl validate --kind session sesion.json
  cat aula.json | sesionctl validate --kind class - -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := schema.ParseKind(kind)
			if err != nil {
				return err
			}
			switch output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (want text, json or yaml)", output)
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			// Malformed input is left as is for the rules to report on "$".
			if canonical, err := plan.Canonicalize(args[0], data); err == nil {
				data = canonical
			}

			report := validationReport{File: args[0], Kind: k, Valid: true}
			if verr := schema.Validate(k, data); verr != nil {
				report.Valid = false
				for _, fe := range schema.Errors(verr) {
					report.Fields = append(report.Fields, httpapi.FieldIssue{Field: fe.Field, Problem: fe.Problem})
				}
				if len(report.Fields) == 0 {
					return verr
				}
			}

			if err := printReport(cmd, output, report); err != nil {
				return err
			}
			if !report.Valid {
				return errSilent
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "document kind: session or class")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func printReport(cmd *cobra.Command, format string, r validationReport) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	if r.Valid {
		fmt.Fprintf(out, "%s %s is a valid %s document\n", okStyle.Render("✓"), r.File, r.Kind)
		return nil
	}
	fmt.Fprintf(out, "%s %s: %d problem(s)\n", errStyle.Render("✗"), r.File, len(r.Fields))
	for _, f := range r.Fields {
		fmt.Fprintf(out, "  %s %s\n", labelStyle.Render(f.Field), f.Problem)
	}
	return nil
}
