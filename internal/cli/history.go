package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/Atliac/minitest/internal/service"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	test   string
	limit  int
	dbPath string
}

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Long: `Show recorded runs, or the results of one test case across runs.

Example:
  minitest history
  minitest history --test parser/empty --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.test, "test", "", "show the results of this test case")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum number of rows (0 for all)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "path to SQLite database file (default from config)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *historyOptions) error {
	c := *GetConfig()
	if opts.dbPath != "" {
		c.Database.Path = opts.dbPath
	}

	svc := service.NewTestService(&c, logger(&c))
	defer svc.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if opts.test != "" {
		results, err := svc.History(opts.test, opts.limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "RUN\tOUTCOME\tEXIT\tDURATION\tRECORDED")
		for _, r := range results {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.RunID, r.Outcome, r.ExitCode, r.Duration, r.CreatedAt.Format(time.DateTime))
		}
		return nil
	}

	runs, err := svc.Runs(opts.limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "RUN\tBINARY\tPASSED\tFAILED\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", r.RunID, r.Binary, r.Passed, r.Failed, r.StartedAt.Format(time.DateTime))
	}
	return nil
}
