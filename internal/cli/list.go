package cli

import (
	"fmt"
	"path/filepath"

	"github.com/Atliac/minitest/internal/service"
	"github.com/Atliac/minitest/pkg/discovery"
	"github.com/Atliac/minitest/pkg/storage"
	"github.com/spf13/cobra"
)

type listOptions struct {
	format string
	output string
	marker string
}

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list <binary>",
		Short: "Print the test cases of a binary",
		Long: `Print the test cases of a binary as a manifest.

Formats:
  text - index:name(file:line), one per line
  json - {"count": n, "tests": [...]}
  yaml - same document as json
  cbor - same document as json, integer keys

Example:
  minitest list build/bin/unit_tests
  minitest list --format json --output tests.json build/bin/unit_tests`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "manifest format (text, json, yaml, cbor)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the manifest to a file instead of stdout")
	cmd.Flags().StringVar(&opts.marker, "marker", "", "listing marker (default: derived from the binary path)")

	return cmd
}

func runList(cmd *cobra.Command, binary string, opts *listOptions) error {
	format, err := discovery.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	c := GetConfig()
	svc := service.NewTestService(c, logger(c))
	defer svc.Close()

	entries, err := svc.Discover(cmd.Context(), binary, opts.marker)
	if err != nil {
		return err
	}

	data, err := discovery.EncodeManifest(entries, format)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	store, err := storage.NewLocalStorage(filepath.Dir(opts.output))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := store.Put(filepath.Base(opts.output), data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d test case(s) to %s\n", len(entries), opts.output)

	return nil
}
