// Package main implements the sesionctl CLI for generating and checking
// session-plan documents, locally or against a running sesiond server.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/sesiond/internal/http"
)

// version information (set via ldflags during build)
var version = "dev"

// errSilent marks failures that were already reported to the user.
var errSilent = errors.New("silent failure")

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("46")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	serverURL string
	timeout   time.Duration
}

func (o *rootOptions) client() *http.Client {
	return &http.Client{Timeout: o.timeout}
}

func (o *rootOptions) url(path string) string {
	return strings.TrimRight(o.serverURL, "/") + path
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "sesionctl",
		Short: "Generate and validate session-plan documents",
		Long: `sesionctl renders weekly session-plan documents from a .docx template and two
JSON documents (the session plan and the class roster).

It can render locally or submit the job to a running sesiond server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "sesiond server URL (e.g. http://localhost:5000)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP request timeout")

	root.AddCommand(
		newGenerateCmd(opts),
		newValidateCmd(),
		newPeriodCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check sesiond server health",
		Long: `Check the health status of a sesiond server.

Examples:
  # Check health on the default port
  sesionctl health --server http://localhost:5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.serverURL == "" {
				return fmt.Errorf("--server is required")
			}
			return runHealth(cmd, opts)
		},
	}
}

func runHealth(cmd *cobra.Command, opts *rootOptions) error {
	url := opts.url("/health")
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := opts.client().Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}

	var health httpapi.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	out := cmd.OutOrStdout()
	status := okStyle.Render("● " + health.Status)
	if health.Status != "ok" {
		status = warnStyle.Render("● " + health.Status)
	}
	fmt.Fprintf(out, "%s %s\n", titleStyle.Render(health.Service), status)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Server:          "), opts.serverURL)
	if health.Version != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Version:         "), health.Version)
	}
	fmt.Fprintf(out, "%s %t\n", labelStyle.Render("Default template:"), health.DefaultTemplate)
	if health.Telemetry != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Telemetry:       "), health.Telemetry)
	}
	for _, w := range health.Warnings {
		fmt.Fprintf(out, "%s %s\n", warnStyle.Render("!"), w)
	}
	return nil
}

// serverError turns a non-2xx response into an error, preferring the
// server's {"error": ...} message.
func serverError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, err)
	}
	var e httpapi.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}
