package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"diagref/internal/archive"
	"diagref/internal/report"
)

func newRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render [flags] <archive>",
		Short: "Render a saved results archive without recompiling",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	renderCmd.Flags().String("format", "latex", "report format (latex|plain)")
	renderCmd.Flags().BoolP("plain", "p", false, "write plain text instead of LaTeX")
	return renderCmd
}

func runRender(cmd *cobra.Command, args []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	plain, err := cmd.Flags().GetBool("plain")
	if err != nil {
		return fmt.Errorf("failed to get plain flag: %w", err)
	}
	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	if plain {
		if cmd.Flags().Changed("format") && format != report.FormatPlain {
			return fmt.Errorf("--plain and --format %s cannot be used together", formatStr)
		}
		format = report.FormatPlain
	}

	a, err := archive.Load(args[0])
	if err != nil {
		return err
	}
	spec := a.Spec()

	out := bufio.NewWriter(cmd.OutOrStdout())
	emitter, err := report.New(format, out, report.Meta{Compiler: spec.Command, Language: spec.Language})
	if err != nil {
		return err
	}
	if err := report.Render(emitter, a.Document(), a.ReportSections()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return out.Flush()
}
