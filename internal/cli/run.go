package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Atliac/minitest/internal/service"
	"github.com/Atliac/minitest/pkg/database"
	"github.com/Atliac/minitest/pkg/runner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type runOptions struct {
	filter string
	dbPath string
	output bool
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <binary>",
		Short: "Run every test case of a binary in its own process",
		Long: `Run every test case of a binary in its own process.

Each test case is started in silent mode, exactly like the generated CTest
entries do. Results are recorded in the history database. The command fails
if any test case did not pass.

Example:
  minitest run build/bin/unit_tests
  minitest run --filter '^parser/' build/bin/unit_tests`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.filter, "filter", "", "regular expression selecting test case names")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "path to SQLite database file (default from config)")
	cmd.Flags().BoolVar(&opts.output, "show-output", false, "print the output of failed test cases")

	return cmd
}

func runRun(cmd *cobra.Command, binary string, opts *runOptions) error {
	c := *GetConfig()
	if opts.dbPath != "" {
		c.Database.Path = opts.dbPath
	}
	filter := opts.filter
	if filter == "" {
		filter = c.Run.Filter
	}

	svc := service.NewTestService(&c, logger(&c))
	defer svc.Close()

	out := cmd.OutOrStdout()
	color := isTerminal(out)
	report, err := svc.RunAll(cmd.Context(), binary, filter, func(r database.Result) {
		fmt.Fprintf(out, "%s %s (%s)\n", status(r.Outcome, color), r.TestName, r.Duration)
		if opts.output && r.Outcome != runner.Passed.String() && r.Output != "" {
			fmt.Fprint(out, indent(r.Output))
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nRun %d: %d passed, %d failed\n", report.Run.RunID, report.Run.Passed, report.Run.Failed)
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d test case(s) failed", failed)
	}

	return nil
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const (
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

func status(outcome string, color bool) string {
	var label, code string
	switch outcome {
	case runner.Passed.String():
		label, code = "PASS", ansiGreen
	case runner.Failed.String():
		label, code = "FAIL", ansiRed
	default:
		label, code = "ERROR", ansiYellow
	}
	if !color {
		return label
	}
	return code + label + ansiReset
}

func indent(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
