// Package compiler drives one Solidity source through parsing, IR
// construction, lowering and printing.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/tliron/commonlog"

	"sol2rs/grammar"
	"sol2rs/internal/backend"
	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

var log = commonlog.GetLogger("sol2rs.compiler")

// Options tune a compilation. The zero value emits the default contract
// unformatted.
type Options struct {
	// Contract names the contract to emit; empty selects the most derived one.
	Contract string
	// Format pipes the output through rustfmt.
	Format bool
	// Rustfmt overrides the formatter binary.
	Rustfmt string
}

// Compile translates source into Rust for the given backend.
func Compile(name, source string, kind backend.Kind) (string, error) {
	return CompileWith(context.Background(), name, source, kind, Options{})
}

// CompileWith is Compile with options. Every failure is a *errors.CompileError.
func CompileWith(ctx context.Context, name, source string, kind backend.Kind, opts Options) (string, error) {
	pkg, err := BuildIR(name, source)
	if err != nil {
		return "", err
	}

	main, err := pkg.Main(opts.Contract)
	if err != nil {
		return "", errors.Unexpected(lexer.Position{Filename: name}, "a concrete contract", err.Error())
	}

	b, err := backend.New(kind)
	if err != nil {
		return "", errors.Unsupported(lexer.Position{}, err.Error())
	}

	file, err := lower.Lower(main, b)
	if err != nil {
		return "", err
	}
	out := rust.Print(file)

	if opts.Format {
		formatted, err := rust.NewFormatter(opts.Rustfmt).Format(ctx, out)
		if err != nil {
			return "", err
		}
		out = formatted
	}
	log.Infof("compiled %s (%s) for %s", main.Name, name, kind)
	return out, nil
}

// BuildIR parses source and builds its IR package with a fresh
// compilation context.
func BuildIR(name, source string) (*ir.Package, error) {
	unit, err := grammar.ParseSource(name, source)
	if err != nil {
		return nil, err
	}
	return ir.Build(pkgName(name), unit, ir.NewCompilationContext())
}

// CompileFile compiles src into dst. An existing dst is left alone and
// reported as skipped.
func CompileFile(ctx context.Context, src, dst string, kind backend.Kind, opts Options) (bool, error) {
	if _, err := os.Stat(dst); err == nil {
		log.Infof("%s exists, skipping", dst)
		return true, nil
	}

	source, err := os.ReadFile(src)
	if err != nil {
		return false, errors.IO(src, fmt.Errorf("failed to read file: %w", err))
	}
	out, err := CompileWith(ctx, src, string(source), kind, opts)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, errors.IO(dst, err)
	}
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return false, errors.IO(dst, fmt.Errorf("failed to write file: %w", err))
	}
	return false, nil
}

// OutputPath is where CompileFile writes the Rust for src under dir.
func OutputPath(dir, src string) string {
	return filepath.Join(dir, pkgName(src)+".rs")
}

func pkgName(path string) string {
	base := filepath.Base(path)
	return ir.Ident(base[:len(base)-len(filepath.Ext(base))])
}
