package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diagref/internal/archive"
	"diagref/internal/config"
	"diagref/internal/observ"
	"diagref/internal/pipeline"
	"diagref/internal/report"
	"diagref/internal/version"
)

func newGenCmd() *cobra.Command {
	genCmd := &cobra.Command{
		Use:   "gen [flags] <source-file>",
		Short: "Generate the diagnostic reference for a source file",
		Long: `Compile the source once to make sure it is clean, then remove each non-blank
line in turn, recompile and write one report section per removed line to stdout.

Every compile, the baseline included, runs on a copy of the source inside a
private scratch directory. Files next to the source (for example headers pulled
in with #include "local.h") are not visible there; pass their directory to the
compiler explicitly, e.g. --compiler "g++ -Wall -I/path/to/src".`,
		Args: cobra.ExactArgs(1),
		RunE: runGen,
	}
	genCmd.Flags().StringP("compiler", "c", "g++ -Wall", "compiler command; the source file name is appended")
	genCmd.Flags().StringP("lang", "l", "C++", "language name for the LaTeX listings package")
	genCmd.Flags().StringP("extension", "e", ".cpp", "file name extension for materialized sources")
	genCmd.Flags().BoolP("plain", "p", false, "write plain text instead of LaTeX")
	genCmd.Flags().String("format", "latex", "report format (latex|plain)")
	genCmd.Flags().IntP("jobs", "j", 0, "max parallel compiler invocations (0=auto)")
	genCmd.Flags().Duration("timeout", 0, "per-invocation compiler timeout (0=none)")
	genCmd.Flags().String("scratch-dir", "", "parent directory for temporary sources (default: system temp dir)")
	genCmd.Flags().String("save", "", "also write the results archive to this path")
	genCmd.Flags().String("ui", "off", "show a progress view on stderr (auto|on|off)")
	return genCmd
}

// runGen executes the "gen" command: it resolves settings from defaults,
// diagref.toml and flags, runs the pipeline and writes the report to stdout.
func runGen(cmd *cobra.Command, args []string) (err error) {
	sourcePath := args[0]

	log, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	session, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := session.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	settings, err := resolveSettings(cmd, sourcePath)
	if err != nil {
		return err
	}

	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	savePath, err := cmd.Flags().GetString("save")
	if err != nil {
		return fmt.Errorf("failed to get save flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	req := &pipeline.Request{
		SourcePath: sourcePath,
		Spec:       settings.Spec,
		Format:     settings.Format,
		Out:        out,
		Jobs:       settings.Jobs,
		Log:        log,
	}
	if showTimings {
		req.Timer = observ.NewTimer()
	}
	log.Debug("settings resolved",
		zap.String("compiler", settings.Spec.Command),
		zap.String("extension", settings.Spec.Extension),
		zap.String("format", string(settings.Format)),
		zap.Int("jobs", settings.Jobs))

	var result pipeline.Result
	if shouldUseTUI(mode) {
		result, err = runWithUI(cmd.Context(), filepath.Base(sourcePath), req)
	} else {
		result, err = pipeline.Run(cmd.Context(), req)
	}
	if err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if savePath != "" {
		a, err := archive.New("diagref "+version.Collect().Version, result.Document, result.Spec, result.Sections)
		if err != nil {
			return err
		}
		if err := archive.Save(savePath, a); err != nil {
			return fmt.Errorf("failed to save archive: %w", err)
		}
		log.Info("archive saved", zap.String("path", savePath))
	}

	if req.Timer != nil {
		if err := req.Timer.WriteSummary(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}
	return nil
}

// resolveSettings layers built-in defaults, the config file and explicitly
// set flags, in that order.
func resolveSettings(cmd *cobra.Command, sourcePath string) (config.Settings, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	manifest, err := config.Discover(configPath, sourcePath)
	if err != nil {
		return config.Settings{}, err
	}
	settings, err := manifest.Apply(config.Defaults())
	if err != nil {
		return config.Settings{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("compiler") {
		if settings.Spec.Command, err = flags.GetString("compiler"); err != nil {
			return settings, fmt.Errorf("failed to get compiler flag: %w", err)
		}
	}
	if flags.Changed("lang") {
		if settings.Spec.Language, err = flags.GetString("lang"); err != nil {
			return settings, fmt.Errorf("failed to get lang flag: %w", err)
		}
	}
	if flags.Changed("extension") {
		if settings.Spec.Extension, err = flags.GetString("extension"); err != nil {
			return settings, fmt.Errorf("failed to get extension flag: %w", err)
		}
	}
	if flags.Changed("timeout") {
		if settings.Spec.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return settings, fmt.Errorf("failed to get timeout flag: %w", err)
		}
	}
	if flags.Changed("scratch-dir") {
		if settings.Spec.ScratchDir, err = flags.GetString("scratch-dir"); err != nil {
			return settings, fmt.Errorf("failed to get scratch-dir flag: %w", err)
		}
	}
	if flags.Changed("jobs") {
		if settings.Jobs, err = flags.GetInt("jobs"); err != nil {
			return settings, fmt.Errorf("failed to get jobs flag: %w", err)
		}
		if settings.Jobs < 0 {
			return settings, fmt.Errorf("--jobs must be >= 0")
		}
	}

	plain, err := flags.GetBool("plain")
	if err != nil {
		return settings, fmt.Errorf("failed to get plain flag: %w", err)
	}
	if flags.Changed("format") {
		formatStr, err := flags.GetString("format")
		if err != nil {
			return settings, fmt.Errorf("failed to get format flag: %w", err)
		}
		format, err := report.ParseFormat(formatStr)
		if err != nil {
			return settings, err
		}
		if plain && format != report.FormatPlain {
			return settings, fmt.Errorf("--plain and --format %s cannot be used together", formatStr)
		}
		settings.Format = format
	}
	if plain {
		settings.Format = report.FormatPlain
	}

	settings.Spec = settings.Spec.Normalized()
	if settings.Spec.ScratchDir != "" {
		if err := os.MkdirAll(settings.Spec.ScratchDir, 0o750); err != nil {
			return settings, fmt.Errorf("failed to create scratch dir: %w", err)
		}
	}
	return settings, nil
}
