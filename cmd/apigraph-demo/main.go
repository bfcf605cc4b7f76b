// Command apigraph-demo is a thin CLI over pkg/apigraph for manual
// smoke-testing: extract an index from a source tree, render it as JSON
// or as coverage-aware stubs.
//
// Grounded on the teacher's demo/cmd/main.go cobra root-command-plus-
// subcommands shape (rootCmd.AddCommand(runCmd, listCmd) then
// rootCmd.Execute()), adapted from the teacher's scenario-runner demo to
// a direct operations-on-a-path CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termfx/apigraph/internal/config"
	"github.com/termfx/apigraph/internal/format"
	"github.com/termfx/apigraph/pkg/apigraph"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "apigraph-demo",
		Short: "Public-API graph and sample-coverage engine demo",
		Long:  "Extract a public-API graph from a source tree and render it as JSON or as coverage-aware stubs.",
	}

	var lang string
	var cacheDSN string

	extractCmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract the public-API graph and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := apigraph.Extract(cmd.Context(), args[0], apigraph.ExtractOptions{
				Lang:     lang,
				CacheDSN: cacheDSN,
			})
			if err != nil {
				return fmt.Errorf("extracting %s: %w", args[0], err)
			}
			out, err := apigraph.RenderJSON(index)
			if err != nil {
				return fmt.Errorf("rendering JSON: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
	extractCmd.Flags().StringVarP(&lang, "lang", "l", "go", "language front end (go, csharp)")
	extractCmd.Flags().StringVar(&cacheDSN, "cache", "", "extraction cache DSN (default: none)")

	var budget int
	var samplesPath string
	var helperPath string

	stubsCmd := &cobra.Command{
		Use:   "stubs <path>",
		Short: "Render coverage-aware compact stubs for a source tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			index, err := apigraph.Extract(ctx, args[0], apigraph.ExtractOptions{
				Lang:     lang,
				CacheDSN: cacheDSN,
			})
			if err != nil {
				return fmt.Errorf("extracting %s: %w", args[0], err)
			}

			clients := apigraph.Reachability(index).ClientTypes

			opts := format.Options{Budget: budget}
			if samplesPath != "" {
				usageIdx, err := apigraph.AnalyzeUsage(ctx, clients, index, samplesPath, apigraph.UsageOptions{
					Lang:   lang,
					Helper: helperPath,
				})
				if err != nil {
					return fmt.Errorf("analyzing usage under %s: %w", samplesPath, err)
				}
				opts.Usage = &usageIdx
			}

			fmt.Println(apigraph.RenderStubs(index, opts))
			return nil
		},
	}
	stubsCmd.Flags().StringVarP(&lang, "lang", "l", "go", "language front end (go, csharp)")
	stubsCmd.Flags().StringVar(&cacheDSN, "cache", "", "extraction cache DSN (default: none)")
	stubsCmd.Flags().IntVar(&budget, "budget", 32_000, "character budget for the rendered stubs")
	stubsCmd.Flags().StringVar(&samplesPath, "samples", "", "sample-code directory to analyze for coverage (default: no coverage mode)")
	stubsCmd.Flags().StringVar(&helperPath, "helper", config.UsageHelperPath("APIGRAPH_USAGE_HELPER"), "external usage-analysis helper path (Mode B); overrides --samples' native walker")

	rootCmd.AddCommand(extractCmd, stubsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
