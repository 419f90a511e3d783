package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"diagref/internal/compile"
	"diagref/internal/version"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "diagref",
		Short: "Compiler diagnostic reference generator",
		Long: `diagref removes each non-blank line of a source file in turn, recompiles
the rest and records the compiler's diagnostics as a LaTeX or plain-text reference`,
		Version:       version.Collect().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupColor(cmd)
		},
	}

	rootCmd.AddCommand(newGenCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize stderr output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level for stderr messages (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("timings", false, "print phase timings to stderr")
	rootCmd.PersistentFlags().String("config", "", "path to diagref.toml (default: search upward from the source file)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write runtime trace to file")
	return rootCmd
}

// main runs the root command and exits with status 1 on any error.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(color.Error, err)
		os.Exit(1)
	}
}

// reportError prints err on the operator's error channel. A failing baseline
// also gets its diagnostics printed so the operator can fix the source.
func reportError(w io.Writer, err error) {
	errColor := color.New(color.FgRed, color.Bold)
	fmt.Fprintf(w, "%s %v\n", errColor.Sprint("error:"), err)

	var baseErr *compile.BaselineCompileError
	if errors.As(err, &baseErr) && baseErr.Diagnostics != "" {
		diagnostics := baseErr.Diagnostics
		if !strings.HasSuffix(diagnostics, "\n") {
			diagnostics += "\n"
		}
		fmt.Fprint(w, diagnostics)
	}
}

func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stderr)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
