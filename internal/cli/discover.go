package cli

import (
	"fmt"

	"github.com/Atliac/minitest/internal/service"
	"github.com/spf13/cobra"
)

type discoverOptions struct {
	output string
	marker string
}

// NewDiscoverCommand creates the discover command
func NewDiscoverCommand() *cobra.Command {
	opts := &discoverOptions{}

	cmd := &cobra.Command{
		Use:   "discover <binary>",
		Short: "Export the test cases of a binary to CTest",
		Long: `Export the test cases of a binary to CTest.

The binary is run from its own directory with the machine-list directive.
One add_test and one set_tests_properties statement per test case are written
into the CTest file, replacing the block of an earlier discovery of the same
binary.

Example:
  minitest discover build/bin/unit_tests
  minitest discover --output build/CTestTestfile.cmake build/bin/unit_tests`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "CTest file to update (default: nearest CTestTestfile.cmake)")
	cmd.Flags().StringVar(&opts.marker, "marker", "", "block marker (default: derived from the binary path)")

	return cmd
}

func runDiscover(cmd *cobra.Command, binary string, opts *discoverOptions) error {
	c := GetConfig()
	svc := service.NewTestService(c, logger(c))
	defer svc.Close()

	res, err := svc.Export(cmd.Context(), binary, opts.output, opts.marker)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.Entries) == 0 {
		fmt.Fprintf(out, "minitest discover: no test case found in %s\n", binary)
	}
	fmt.Fprintf(out, "✓ Exported %d test case(s) to %s\n", len(res.Entries), res.Path)
	if verbose {
		fmt.Fprintf(out, "  Marker: %s\n", res.Marker)
	}

	return nil
}
