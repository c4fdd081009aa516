package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/minghu6/elflib/internal/elffile"
	"github.com/minghu6/elflib/internal/inspect"
	"github.com/minghu6/elflib/internal/utils"
)

var (
	// Version information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var uerr *usageError
		if errors.As(err, &uerr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// usageError marks argument and configuration mistakes so main can exit 2
// instead of 1.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elfview",
		Short: "Inspect ELF binaries",
		Long: `elfview parses ELF (Executable and Linkable Format) binaries and displays
their structure: the file header, section and program header tables, symbol
tables, the dynamic section, notes and hardening features.

Both 32-bit and 64-bit objects are supported, in either byte order. Results
can be output as readelf-style text or as machine-readable JSON.

Exit codes:
  0 - Inspection succeeded
  1 - The file could not be parsed or inspected
  2 - Invalid arguments or configuration`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newHeaderCmd())
	cmd.AddCommand(newSectionsCmd())
	cmd.AddCommand(newSegmentsCmd())
	cmd.AddCommand(newSymbolsCmd())
	cmd.AddCommand(newDynamicCmd())
	cmd.AddCommand(newNotesCmd())
	cmd.AddCommand(newHardenCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// renderFlags are the flags every view command shares. Empty values defer to
// the configuration file.
type renderFlags struct {
	format     string
	color      string
	configFile string
	verbose    bool
}

func (rf *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&rf.format, "format", "f", "", "Output format (text, json)")
	cmd.Flags().StringVar(&rf.color, "color", "", "Color mode for text output (auto, always, never)")
	cmd.Flags().StringVarP(&rf.configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVarP(&rf.verbose, "verbose", "v", false, "Enable verbose logging")
}

func newViewCmd(use, short string, selection []string) *cobra.Command {
	var rf renderFlags
	cmd := &cobra.Command{
		Use:   use + " <binary>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], rf, selection, "")
		},
	}
	rf.register(cmd)
	return cmd
}

func newInspectCmd() *cobra.Command {
	var rf renderFlags
	var symbolTable string
	var only []string
	cmd := &cobra.Command{
		Use:   "inspect <binary>",
		Short: "Show the full inspection report",
		Long: `Run every inspector against the binary and show the assembled report:
file header, sections, segments, symbol tables, dynamic section, notes
and hardening features. Use --only to restrict the report to a subset of
inspectors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var selection []string
			if len(only) > 0 {
				selection = only
			}
			return runInspect(cmd, args[0], rf, selection, symbolTable)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&symbolTable, "symbols", "", "Symbol table to show (symtab, dynsym, all)")
	cmd.Flags().StringSliceVar(&only, "only", nil,
		"Inspectors to run (header, sections, segments, symbols, dynamic, notes, hardening)")
	return cmd
}

func newHeaderCmd() *cobra.Command {
	return newViewCmd("header", "Show the ELF file header", []string{"header"})
}

func newSectionsCmd() *cobra.Command {
	return newViewCmd("sections", "Show the section header table", []string{"sections"})
}

func newSegmentsCmd() *cobra.Command {
	return newViewCmd("segments", "Show the program header table", []string{"segments"})
}

func newSymbolsCmd() *cobra.Command {
	var rf renderFlags
	var dynamic, all bool
	cmd := &cobra.Command{
		Use:   "symbols <binary>",
		Short: "Show symbol tables",
		Long: `Show the static symbol table (.symtab). With --dynamic, show the dynamic
symbol table (.dynsym) instead; with --all, show both.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := ""
			switch {
			case all:
				table = "all"
			case dynamic:
				table = "dynsym"
			}
			return runInspect(cmd, args[0], rf, []string{"symbols"}, table)
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVarP(&dynamic, "dynamic", "D", false, "Show the dynamic symbol table")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show both symbol tables")
	return cmd
}

func newDynamicCmd() *cobra.Command {
	return newViewCmd("dynamic", "Show the dynamic section", []string{"dynamic"})
}

func newNotesCmd() *cobra.Command {
	return newViewCmd("notes", "Show note sections", []string{"notes"})
}

func newHardenCmd() *cobra.Command {
	return newViewCmd("harden", "Show hardening features", []string{"hardening"})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "elfview version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", buildDate)
		},
	}
}

// runInspect loads the binary, runs the selected inspectors (all of them when
// selection is nil) and emits the report on the command's stdout.
func runInspect(cmd *cobra.Command, binaryPath string, rf renderFlags, selection []string, symbolTable string) error {
	var config *utils.Config
	var err error
	if rf.configFile != "" {
		config, err = utils.LoadConfigFromFile(rf.configFile)
	} else {
		config, err = utils.LoadDefaultConfig()
	}
	if err != nil {
		return &usageError{err: errors.Wrap(err, "load configuration")}
	}

	loggerConfig := utils.LoggerConfig{
		Level:  utils.ParseLogLevel(config.LogLevel),
		Format: utils.ParseLogFormat(config.LogFormat),
	}
	if rf.verbose {
		loggerConfig.Level = utils.LogLevelDebug
	}
	logger := utils.NewLogger(loggerConfig)

	opts, err := resolveEmitOptions(rf, config, symbolTable)
	if err != nil {
		return &usageError{err: err}
	}

	if _, err := os.Stat(binaryPath); err != nil {
		return &usageError{err: errors.Errorf("binary file not found: %s", binaryPath)}
	}

	logger.WithComponent("elfview").Debugf("Loading %s", binaryPath)
	f, err := elffile.Load(binaryPath)
	if err != nil {
		return err
	}

	runner := inspect.NewRunner(inspect.DefaultRegistry())
	var report *inspect.Report
	if selection == nil {
		report = runner.RunAll(f)
	} else {
		report, err = runner.RunSelected(f, selection)
		if err != nil {
			return err
		}
	}

	logger.WithComponent("elfview").Debugf("Rendering %d fragments as %s", len(report.Fragments), opts.format)
	return emitReport(cmd.OutOrStdout(), f, report, opts)
}
