package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slideclip/internal/config"
	"github.com/ivlev/slideclip/internal/engine"
	"github.com/ivlev/slideclip/internal/pptx"
	"github.com/ivlev/slideclip/internal/region"
	"github.com/ivlev/slideclip/internal/report"
	"github.com/ivlev/slideclip/internal/system"
)

func main() {
	system.InitResourceLimits()

	cfg := &config.Config{}
	var presetPath string

	flag.StringVar(&cfg.OutputDir, "output", "output_dir", "Output directory path")
	flag.StringVar(&cfg.OutputDir, "o", "output_dir", "Output directory path (shorthand)")
	flag.StringVar(&cfg.ColorSpec, "color", "cyan", "Marker rectangle color (name: cyan, red, ... or HEX: #FF0000)")
	flag.StringVar(&cfg.ColorSpec, "c", "cyan", "Marker rectangle color (shorthand)")
	flag.IntVar(&cfg.Tolerance, "tolerance", region.DefaultTolerance, "Per-channel color match tolerance (0-255)")
	flag.IntVar(&cfg.DPI, "dpi", 300, "Resolution for PNG output")
	flag.Float64Var(&cfg.MarginPt, "margin", 0, "Margin in points (positive: expand, negative: shrink)")
	flag.BoolVar(&cfg.EmbedFonts, "embed-fonts", false, "Force font embedding (PDF/A output from the renderer)")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Show detected regions without converting")
	flag.BoolVar(&cfg.NoOverwrite, "no-overwrite", false, "Confirm before overwriting existing files")
	flag.BoolVar(&cfg.NoOverwrite, "n", false, "Confirm before overwriting existing files (shorthand)")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "Suppress output")
	flag.BoolVar(&cfg.Quiet, "q", false, "Suppress output (shorthand)")
	flag.BoolVar(&cfg.FailFast, "fail-fast", false, "Stop the batch after the first failing file")
	flag.IntVar(&cfg.Workers, "workers", 1, "Number of files processed in parallel")
	flag.IntVar(&cfg.MaxEdge, "max-edge", 0, "Cap the longer edge of PNG output in pixels (0: no cap)")
	flag.StringVar(&cfg.ReportPath, "report", "", "Write a YAML scan report to this path")
	flag.StringVar(&cfg.Soffice, "soffice", "", "LibreOffice binary (default: soffice from PATH)")
	flag.StringVar(&presetPath, "config", "", "YAML preset file with defaults")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: slideclip [options] input.pptx [more.pptx ...]\n\nExtract figures (PDF/PNG/SVG) from PPTX slides.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	explicit := explicitFlags(flag.CommandLine)

	if presetPath != "" {
		preset, err := config.LoadPreset(presetPath)
		if err != nil {
			log.Fatalf("[-] Error: %v", err)
		}
		preset.Apply(cfg, explicit)
	}

	inputs, err := expandInputs(flag.Args())
	if err != nil {
		log.Fatalf("[-] Error: %v", err)
	}
	cfg.Inputs = inputs

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep := &report.Report{DryRun: cfg.DryRun}
	var mu sync.Mutex
	var allOutputs []string
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for _, input := range cfg.Inputs {
		g.Go(func() error {
			res, runErr := processFile(gctx, cfg, input)

			mu.Lock()
			defer mu.Unlock()
			if res != nil {
				allOutputs = append(allOutputs, res.Outputs...)
				rep.Artifacts = append(rep.Artifacts, report.NewArtifact(input, res.Regions, res.Outputs, runErr))
			}
			if runErr != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", input, runErr)
				if cfg.FailFast {
					return runErr
				}
			}
			return nil
		})
	}
	// The only error surfaced here is the fail-fast one, already reported.
	_ = g.Wait()

	if cfg.ReportPath != "" {
		if err := report.Write(rep, cfg.ReportPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		}
	}

	if !cfg.Quiet {
		switch {
		case len(allOutputs) > 0 && cfg.DryRun:
			fmt.Printf("\n[Dry-run] Would create %d file(s)\n", len(allOutputs))
		case len(allOutputs) > 0:
			fmt.Printf("\n[+++] Created %d file(s):\n", len(allOutputs))
			for _, f := range allOutputs {
				fmt.Printf("  - %s\n", f)
			}
		default:
			fmt.Println("No files were created")
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func processFile(ctx context.Context, cfg *config.Config, input string) (*engine.Result, error) {
	doc, err := pptx.Open(input)
	if err != nil {
		return nil, err
	}

	project := engine.NewProject(cfg, input, doc)
	project.Confirm = overwritePrompt.confirm
	project.Progress = func(msg string, current, total int) {
		if !cfg.Quiet && total > 0 {
			fmt.Printf("[>] %s (%d/%d)\n", msg, current, total)
		}
	}

	return project.Run(ctx)
}

// flagAliases maps shorthand flags to the canonical names the preset merge
// keys on.
var flagAliases = map[string]string{
	"o": "output",
	"c": "color",
	"n": "no-overwrite",
	"q": "quiet",
}

// explicitFlags records which flags were set on the command line, with
// shorthand aliases folded into their canonical names so the preset merge
// sees them as explicit.
func explicitFlags(fs *flag.FlagSet) map[string]bool {
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if canonical, ok := flagAliases[name]; ok {
			name = canonical
		}
		explicit[name] = true
	})
	return explicit
}

// expandInputs resolves wildcards, drops duplicates in order, and requires
// every named file to exist before any work starts.
func expandInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no input files specified")
	}

	var files []string
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				log.Printf("[!] No files matched pattern: %s", arg)
			}
			files = append(files, matches...)
		} else {
			files = append(files, arg)
		}
	}

	seen := map[string]bool{}
	unique := files[:0]
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			unique = append(unique, f)
		}
	}

	for _, f := range unique {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("input file not found: %s", f)
		}
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("no input files specified")
	}

	return unique, nil
}

// prompter serializes interactive overwrite prompts. Parallel workers must
// not interleave questions or read answers meant for another prompt, so all
// prompts share one mutex and one buffered stdin reader.
type prompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

var overwritePrompt = &prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}

func (p *prompter) confirm(existing []string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out, "The following files already exist:")
	for _, f := range existing {
		fmt.Fprintf(p.out, "  - %s\n", f)
	}
	fmt.Fprint(p.out, "Overwrite? [y/N]: ")

	line, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
