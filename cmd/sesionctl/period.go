package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sesiond/internal/calendar"
	httpapi "github.com/fyrsmithlabs/sesiond/internal/http"
)

func newPeriodCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "period <YYYY-MM-DD>",
		Short: "Show the start-to-Friday period for a start date",
		Long: `Show the period label a document generated for the given start date carries.

Examples:
  sesionctl period 2025-03-03
  sesionctl period 2025-03-03 --server http://localhost:5000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   httpapi.PeriodResponse
				err error
			)
			if opts.serverURL != "" {
				p, err = remotePeriod(cmd, opts, args[0])
			} else {
				p, err = localPeriod(args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(p.Period))
			fmt.Fprintf(out, "%s %s → %s\n", labelStyle.Render("Dates:"), p.StartDate, p.EndDate)
			return nil
		},
	}
}

func localPeriod(raw string) (httpapi.PeriodResponse, error) {
	start, err := calendar.ParseStartDate(raw)
	if err != nil {
		return httpapi.PeriodResponse{}, err
	}
	p := calendar.NewPeriod(start)
	return httpapi.PeriodResponse{
		StartDate: p.Start.Format(calendar.StartDateLayout),
		EndDate:   p.End.Format(calendar.StartDateLayout),
		Period:    p.String(),
	}, nil
}

func remotePeriod(cmd *cobra.Command, opts *rootOptions, raw string) (httpapi.PeriodResponse, error) {
	var p httpapi.PeriodResponse
	u := opts.url("/api/v1/period") + "?" + url.Values{httpapi.FieldStartDate: {raw}}.Encode()
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, u, nil)
	if err != nil {
		return p, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := opts.client().Do(req)
	if err != nil {
		return p, fmt.Errorf("failed to connect to %s: %w", opts.serverURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return p, serverError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, fmt.Errorf("failed to decode response: %w", err)
	}
	return p, nil
}
