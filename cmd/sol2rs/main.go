// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"sol2rs/grammar"
	"sol2rs/internal/backend"
	"sol2rs/internal/compiler"
	"sol2rs/internal/config"
	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
)

var version = "0.1.0"

var (
	backendFlag = &cli.StringFlag{
		Name:    "backend",
		Aliases: []string{"b"},
		Usage:   "target framework: ink, ink-v6 or soroban",
		EnvVars: []string{"SOL2RS_BACKEND"},
	}
	contractFlag = &cli.StringFlag{
		Name:    "contract",
		Aliases: []string{"c"},
		Usage:   "contract to emit; defaults to the most derived one",
	}
	outFlag = &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "output directory",
	}
	stdoutFlag = &cli.BoolFlag{
		Name:  "stdout",
		Usage: "print the generated Rust instead of writing files",
	}
	formatFlag = &cli.BoolFlag{
		Name:  "format",
		Usage: "run rustfmt over the output",
	}
	rustfmtFlag = &cli.StringFlag{
		Name:  "rustfmt",
		Usage: "rustfmt binary",
	}
	jobsFlag = &cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "files compiled in parallel",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "project file; by default " + config.FileName + " is looked up from the working directory",
	}
	verboseFlag = &cli.IntFlag{
		Name:    "verbosity",
		Aliases: []string{"v"},
		Usage:   "log verbosity, 0 (errors) to 3 (debug)",
	}
)

func main() {
	app := &cli.App{
		Name:    "sol2rs",
		Usage:   "translate Solidity contracts into ink! and Soroban Rust",
		Version: version,
		Flags:   []cli.Flag{configFlag, verboseFlag},
		Before: func(cliCtx *cli.Context) error {
			commonlog.Configure(cliCtx.Int(verboseFlag.Name), nil)
			return nil
		},
		Commands: cli.Commands{
			{
				Name:      "compile",
				Usage:     "compile Solidity files to Rust",
				ArgsUsage: "<file.sol>...",
				Flags:     []cli.Flag{backendFlag, contractFlag, outFlag, stdoutFlag, formatFlag, rustfmtFlag, jobsFlag},
				Action:    compileCLI,
			},
			{
				Name:      "ir",
				Usage:     "print the flattened IR of a contract",
				ArgsUsage: "<file.sol>",
				Flags:     []cli.Flag{contractFlag},
				Action:    irCLI,
			},
			{
				Name:  "backends",
				Usage: "list the available backends",
				Action: func(cliCtx *cli.Context) error {
					for _, name := range backend.Names() {
						fmt.Println(name)
					}
					return nil
				},
			},
			{
				Name:  "grammar",
				Usage: "print the accepted Solidity grammar",
				Action: func(cliCtx *cli.Context) error {
					fmt.Println(grammar.EBNF())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}
}

// loadConfig merges the project file with the flags the user set.
func loadConfig(cliCtx *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := cliCtx.String(configFlag.Name); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	if cliCtx.IsSet(backendFlag.Name) {
		if cfg.Backend, err = backend.ParseKind(cliCtx.String(backendFlag.Name)); err != nil {
			return nil, err
		}
	}
	if cliCtx.IsSet(contractFlag.Name) {
		cfg.Contract = cliCtx.String(contractFlag.Name)
	}
	if cliCtx.IsSet(outFlag.Name) {
		cfg.OutDir = cliCtx.String(outFlag.Name)
	}
	if cliCtx.IsSet(formatFlag.Name) {
		cfg.Format = cliCtx.Bool(formatFlag.Name)
	}
	if cliCtx.IsSet(rustfmtFlag.Name) {
		cfg.Rustfmt = cliCtx.String(rustfmtFlag.Name)
	}
	if cliCtx.IsSet(jobsFlag.Name) && cliCtx.Int(jobsFlag.Name) > 0 {
		cfg.Jobs = cliCtx.Int(jobsFlag.Name)
	}
	if !cliCtx.IsSet(verboseFlag.Name) && cfg.Verbosity > 0 {
		commonlog.Configure(cfg.Verbosity, nil)
	}
	return cfg, nil
}

type result struct {
	src, dst string
	skipped  bool
	err      error
	took     time.Duration
}

func compileCLI(cliCtx *cli.Context) error {
	if cliCtx.NArg() == 0 {
		return cli.Exit("no input files", 2)
	}
	cfg, err := loadConfig(cliCtx)
	if err != nil {
		return err
	}
	opts := compiler.Options{Contract: cfg.Contract, Format: cfg.Format, Rustfmt: cfg.Rustfmt}

	if cliCtx.Bool(stdoutFlag.Name) {
		return printRust(cliCtx.Context, cliCtx.Args().Slice(), cfg.Backend, opts)
	}

	start := time.Now()
	srcs := cliCtx.Args().Slice()
	results := make([]*result, len(srcs))

	g, ctx := errgroup.WithContext(cliCtx.Context)
	g.SetLimit(cfg.Jobs)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			r := &result{src: src, dst: compiler.OutputPath(cfg.OutDir, src)}
			t := time.Now()
			r.skipped, r.err = compiler.CompileFile(ctx, src, r.dst, cfg.Backend, opts)
			r.took = time.Since(t)
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := report(results)
	if failed > 0 {
		color.Red("%d of %d files failed after %s", failed, len(results), formatDuration(time.Since(start)))
		return cli.Exit("", 1)
	}
	color.Green("Compiled %d files for %s in %s", len(results), cfg.Backend, formatDuration(time.Since(start)))
	return nil
}

// printRust compiles every source to stdout, stopping at the first error.
func printRust(ctx context.Context, srcs []string, kind backend.Kind, opts compiler.Options) error {
	for _, src := range srcs {
		source, err := os.ReadFile(src)
		if err != nil {
			return errors.IO(src, err)
		}
		out, err := compiler.CompileWith(ctx, src, string(source), kind, opts)
		if err != nil {
			fmt.Fprint(os.Stderr, errors.NewReporter(src, string(source)).Report(err))
			return cli.Exit("", 1)
		}
		fmt.Print(out)
	}
	return nil
}

// report prints the diagnostics of failed files and a summary table, and
// returns the number of failures.
func report(results []*result) int {
	failed := 0
	rows := pterm.TableData{{"Source", "Output", "Status", "Time"}}
	for _, r := range results {
		status := pterm.FgGreen.Sprint("ok")
		switch {
		case r.err != nil:
			failed++
			status = pterm.FgRed.Sprint("failed")
			source, _ := os.ReadFile(r.src)
			fmt.Fprint(os.Stderr, errors.NewReporter(r.src, string(source)).Report(r.err))
		case r.skipped:
			status = pterm.FgYellow.Sprint("exists")
		}
		rows = append(rows, []string{r.src, r.dst, status, formatDuration(r.took)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return failed
}

func irCLI(cliCtx *cli.Context) error {
	if cliCtx.NArg() != 1 {
		return cli.Exit("expected one input file", 2)
	}
	src := cliCtx.Args().First()
	source, err := os.ReadFile(src)
	if err != nil {
		return errors.IO(src, err)
	}
	pkg, err := compiler.BuildIR(src, string(source))
	if err == nil {
		var c *ir.Contract
		if c, err = pkg.Main(cliCtx.String(contractFlag.Name)); err == nil {
			fmt.Print(ir.Print(c))
			return nil
		}
	}
	fmt.Fprint(os.Stderr, errors.NewReporter(src, string(source)).Report(err))
	return cli.Exit("", 1)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
