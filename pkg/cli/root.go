package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tally/pkg/api"
)

// DefaultServer is used when neither --server nor TALLY_SERVER is set
const DefaultServer = "http://localhost:8080"

// options are the persistent flags shared by every command
type options struct {
	server  string
	json    bool
	timeout time.Duration
}

func (o *options) client() *api.Client {
	return api.NewClient(o.server, nil)
}

// NewRootCommand creates the tally-cli root command
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tally-cli",
		Short: "Query reports from a tally server",
		Long: `tally-cli lists the report plugins of a tally server and renders their data.

Examples:
  tally-cli list
  tally-cli get MostActiveUsersReportPlugin --duration 7d
  tally-cli get OSBreakdown7ReportPlugin --label prod --json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("TALLY_SERVER")
	if server == "" {
		server = DefaultServer
	}

	root.PersistentFlags().StringVar(&opts.server, "server", server, "tally server URL")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Output in JSON format")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	root.AddCommand(newListCommand(opts))
	root.AddCommand(newGetCommand(opts))

	return root
}
