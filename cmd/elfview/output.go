package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/minghu6/elflib/internal/elffile"
	"github.com/minghu6/elflib/internal/inspect"
	"github.com/minghu6/elflib/internal/utils"
	"github.com/minghu6/elflib/internal/view"
)

// emitOptions are the resolved output settings after flags and configuration
// have been merged.
type emitOptions struct {
	format      string
	color       bool
	symbolTable string
}

// resolveEmitOptions merges command line flags over the configuration.
// Explicit flags win; empty flags fall back to the config file values.
func resolveEmitOptions(rf renderFlags, config *utils.Config, symbolTable string) (emitOptions, error) {
	format := rf.format
	if format == "" {
		format = config.Format
	}
	switch format {
	case "text", "json":
	default:
		return emitOptions{}, errors.Errorf("invalid format %q (valid: text, json)", format)
	}

	colorMode := rf.color
	if colorMode == "" {
		colorMode = config.Color
	}
	var colorized bool
	switch colorMode {
	case "always":
		colorized = true
	case "never":
		colorized = false
	case "auto":
		// fatih/color already detects terminals and NO_COLOR
		colorized = !color.NoColor
	default:
		return emitOptions{}, errors.Errorf("invalid color mode %q (valid: auto, always, never)", colorMode)
	}

	if symbolTable == "" {
		symbolTable = config.Symbols.Table
	}
	switch symbolTable {
	case "symtab", "dynsym", "all":
	default:
		return emitOptions{}, errors.Errorf("invalid symbol table %q (valid: symtab, dynsym, all)", symbolTable)
	}

	return emitOptions{format: format, color: colorized, symbolTable: symbolTable}, nil
}

// emitReport writes the report to w in the requested format.
func emitReport(w io.Writer, f *elffile.File, report *inspect.Report, opts emitOptions) error {
	switch opts.format {
	case "json":
		return emitJSON(w, report)
	case "text":
		return emitText(w, f, report, opts)
	default:
		return errors.Errorf("unsupported output format: %s", opts.format)
	}
}

func emitJSON(w io.Writer, report *inspect.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "encode report")
	}
	return nil
}

func emitText(w io.Writer, f *elffile.File, report *inspect.Report, opts emitOptions) error {
	r := view.NewRenderer(w, view.Options{Color: opts.color})

	title := color.New(color.Bold, color.FgCyan)
	if !opts.color {
		title.DisableColor()
	}
	title.Fprintf(w, "%s\n\n", f.Path)

	for _, frag := range report.Fragments {
		switch frag.Name {
		case "header":
			r.Header(f)
		case "sections":
			r.Sections(f)
		case "segments":
			r.Segments(f)
		case "symbols":
			if opts.symbolTable == "symtab" || opts.symbolTable == "all" {
				r.Symbols(".symtab", f, f.Symbols)
			}
			if opts.symbolTable == "dynsym" || opts.symbolTable == "all" {
				r.Symbols(".dynsym", f, f.DynSymbols)
			}
		case "dynamic":
			r.Dynamic(f)
		case "notes":
			r.Notes(f)
		case "hardening":
			h, ok := frag.Data.(*inspect.Hardening)
			if !ok {
				return errors.Errorf("hardening fragment carries unexpected payload %T", frag.Data)
			}
			renderHardening(w, h, opts.color)
		default:
			// view-less fragments still surface their summary
			fmt.Fprintf(w, "%s: %s\n\n", frag.Name, frag.Summary)
		}
	}
	return nil
}

// renderHardening writes the hardening table. This lives here rather than in
// the view package because the hardening model belongs to inspect, and view
// must not import it.
func renderHardening(w io.Writer, h *inspect.Hardening, colorized bool) {
	heading := color.New(color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	if !colorized {
		heading.DisableColor()
		good.DisableColor()
		bad.DisableColor()
	}

	yesno := func(on bool) string {
		if on {
			return good.Sprint("yes")
		}
		return bad.Sprint("no")
	}

	heading.Fprintf(w, "Hardening features:\n")
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"FEATURE", "STATE"})
	t.SetBorder(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	relro := string(h.Relro)
	if h.Relro == inspect.RelroFull {
		relro = good.Sprint(relro)
	} else {
		relro = bad.Sprint(relro)
	}

	t.Append([]string{"NX (non-executable stack)", yesno(h.NX)})
	t.Append([]string{"RELRO", relro})
	t.Append([]string{"PIE", yesno(h.PIE)})
	t.Append([]string{"Stack canary", yesno(h.StackCanary)})
	t.Append([]string{"Immediate binding", yesno(h.BindNow)})
	t.Append([]string{"Stripped", fmt.Sprintf("%v", h.Stripped)})
	t.Render()

	if len(h.Issues) > 0 {
		fmt.Fprintf(w, "  Issues:\n")
		for _, issue := range h.Issues {
			fmt.Fprintf(w, "    - %s\n", issue)
		}
	}
	fmt.Fprintln(w)
}
