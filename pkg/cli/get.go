package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/tally/pkg/charts"
	"github.com/platinummonkey/tally/pkg/reports"
)

func newGetCommand(opts *options) *cobra.Command {
	var label, start, duration string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Run a report and print its data",
		Long: `Run a report and print its data.

Time-ranged reports default to the last 30 days. --start accepts RFC 3339 or
unix seconds; --duration accepts Go durations plus days (30d) and weeks (2w).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(args[0], label, start, duration)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			data, err := opts.client().GetReport(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, data)
			}
			return renderReport(out, data)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Client label (default: all clients)")
	cmd.Flags().StringVar(&start, "start", "", "Start of the time range")
	cmd.Flags().StringVar(&duration, "duration", "", "Length of the time range")

	return cmd
}

func buildRequest(name, label, start, duration string) (reports.Request, error) {
	req := reports.Request{Name: name}
	if label != "" {
		req.ClientLabel = &label
	}
	if start != "" {
		t, err := reports.ParseTime(start)
		if err != nil {
			return req, err
		}
		req.StartTime = &t
	}
	if duration != "" {
		d, err := reports.ParseDuration(duration)
		if err != nil {
			return req, err
		}
		req.Duration = &d
	}
	return req, nil
}

// renderReport prints a chart as a table
func renderReport(out io.Writer, data *charts.ReportData) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	switch data.RepresentationType {
	case charts.PieChart:
		if len(data.PieChart.Data) == 0 {
			break
		}
		var total float64
		for _, p := range data.PieChart.Data {
			total += p.X
		}
		fmt.Fprintln(w, "LABEL\tCOUNT\tSHARE")
		for _, p := range data.PieChart.Data {
			share := 0.0
			if total > 0 {
				share = 100 * p.X / total
			}
			fmt.Fprintf(w, "%s\t%s\t%.1f%%\n", p.Label, count(p.X), share)
		}

	case charts.LineChart:
		if len(data.LineChart.Data) == 0 {
			break
		}
		fmt.Fprintln(w, "SERIES\tTIME\tVALUE")
		for _, s := range data.LineChart.Data {
			for _, p := range s.Points {
				ts := time.UnixMilli(int64(p.X)).UTC().Format("2006-01-02 15:04")
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Label, ts, count(p.Y))
			}
		}

	case charts.StackChart:
		if len(data.StackChart.Data) == 0 {
			break
		}
		ticks := make(map[float64]string, len(data.StackChart.XTicks))
		for _, t := range data.StackChart.XTicks {
			ticks[t.X] = t.Label
		}
		fmt.Fprintln(w, "SERIES\tX\tVALUE")
		for _, s := range data.StackChart.Data {
			for _, p := range s.Points {
				x, ok := ticks[p.X]
				if !ok {
					x = strconv.FormatFloat(p.X, 'f', -1, 64)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Label, x, count(p.Y))
			}
		}

	case charts.AuditChart:
		if len(data.AuditChart.Rows) == 0 {
			break
		}
		fields := data.AuditChart.UsedFields
		header := make([]string, len(fields))
		for i, f := range fields {
			header[i] = strings.ToUpper(f)
		}
		fmt.Fprintln(w, strings.Join(header, "\t"))
		for i := range data.AuditChart.Rows {
			row := make([]string, len(fields))
			for j, f := range fields {
				row[j] = data.AuditChart.Rows[i].FieldValue(f)
			}
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}

	default:
		return fmt.Errorf("unsupported chart type: %s", data.RepresentationType)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	if isEmpty(data) {
		fmt.Fprintln(out, "No data")
	}
	return nil
}

func isEmpty(data *charts.ReportData) bool {
	switch data.RepresentationType {
	case charts.PieChart:
		return len(data.PieChart.Data) == 0
	case charts.LineChart:
		return len(data.LineChart.Data) == 0
	case charts.StackChart:
		return len(data.StackChart.Data) == 0
	case charts.AuditChart:
		return len(data.AuditChart.Rows) == 0
	}
	return true
}

func count(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
