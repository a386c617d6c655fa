// Command excc is the exc compiler driver: single-file and batch
// compilation, LLVM IR emission, a token-stream dump, an interactive
// REPL, and a YAML-driven fixture runner, all wired onto the exc package's
// Compile/CompileWithOptions/EmitLLVM pipeline. Grounded on
// hhramberg-go-vslc/src/main.go's run(opt) shape: read source, dispatch on
// flags in the same "-ts exits early, then parse, then the chosen backend"
// order, report one top-level error and a non-zero exit code on failure.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"exc"
	"exc/internal/ast"
	"exc/internal/builtins"
	"exc/internal/diag"
	"exc/internal/fixtures"
	"exc/internal/lexer"
	"exc/internal/mathext"
	"exc/internal/prettyprint"
	"exc/internal/registry"
	"exc/internal/replsrv"
	"exc/internal/util"
	"exc/internal/valuefmt"
)

// hostModules is the fixed host module set every mode compiles against:
// the arithmetic/logic core and the complex-number extension. There is no
// flag to select a subset; SPEC_FULL's module set is not optional.
func hostModules() []registry.Module {
	return []registry.Module{builtins.New(), mathext.New()}
}

func main() {
	opt, err := ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if err := run(opt); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(opt Options) error {
	if opt.REPL {
		replsrv.New(appVersion, hostModules()...).Start(os.Stdin, os.Stdout)
		return nil
	}
	if opt.Fixtures != "" {
		return runFixtures(opt)
	}
	if len(opt.Files) > 1 {
		return runBatch(opt)
	}

	out := os.Stdout
	if opt.Out != "" {
		f, err := os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var path string
	if len(opt.Files) == 1 {
		path = opt.Files[0]
	}
	src, err := util.ReadSource(path)
	if err != nil {
		return fmt.Errorf("could not read source code: %w", err)
	}

	return compileOne(opt, src, out)
}

// compileOne runs one source string through the mode opt selects and
// writes its result to out, matching the teacher's run(opt)'s early-exit
// ladder: token stream first, then whichever single backend flag applies.
func compileOne(opt Options, src string, out *os.File) error {
	if opt.TokenStream {
		return dumpTokens(src, out)
	}

	copts := exc.CompileOptions{
		OptLevel:          opt.OptLevel,
		DisableFolding:    opt.DisableFolding,
		DisableIntrinsics: opt.DisableIntrinsics,
	}
	if opt.Verbose {
		copts.OnParsed = func(r *ast.Root) {
			fmt.Fprintln(out, "; --- parsed ---")
			prettyprint.Dump(out, r, true)
		}
		copts.OnFolded = func(r *ast.Root) {
			fmt.Fprintln(out, "; --- folded ---")
			prettyprint.Dump(out, r, true)
		}
	}

	if opt.EmitLLVM {
		ir, diags := exc.EmitLLVM(src, copts, hostModules()...)
		if diags.HasErrors() {
			return fmt.Errorf("%s", diags)
		}
		fmt.Fprint(out, ir)
		return nil
	}

	result, diags := exc.CompileWithOptions(src, copts, hostModules()...)
	if diags.HasErrors() {
		return fmt.Errorf("%s", diags)
	}
	defer result.Close()

	ctx, err := exc.NewExecutionContext(result)
	if err != nil {
		return fmt.Errorf("creating execution context: %w", err)
	}
	defer ctx.Close()

	for _, d := range result.Declarations() {
		if d.Kind == exc.VarDeclKind {
			fmt.Fprintf(out, "var %s: %s declared\n", d.Name, d.Type.Name)
			continue
		}
		ptr, err := ctx.Eval(d.Name)
		if err != nil {
			return fmt.Errorf("evaluating %q: %w", d.Name, err)
		}
		fmt.Fprintf(out, "%s = %s\n", d.Name, valuefmt.FormatValue(d.Type.Name, ptr))
	}
	return nil
}

// dumpTokens prints src's token stream and exits, matching "-ts"'s
// teacher behavior of short-circuiting the rest of the pipeline entirely.
func dumpTokens(src string, out *os.File) error {
	diags := diag.NewSet()
	lex := lexer.New(src, diags)
	for {
		tok := lex.Next()
		fmt.Fprintf(out, "%-20s %-12s %q\n", tok.Span.String(), tok.Kind, tok.Text)
		if tok.Kind == lexer.EOF {
			break
		}
	}
	if diags.HasErrors() {
		return fmt.Errorf("%s", diags)
	}
	return nil
}

// runBatch compiles every file in opt.Files, in parallel across
// opt.Threads workers (1 if unset), collecting results with
// internal/util.Collector the way the teacher's perror gathers worker
// errors, and reports every failure before returning a single summary
// error.
func runBatch(opt Options) error {
	threads := opt.Threads
	if threads < 1 {
		threads = 1
	}

	collector := util.NewCollector(len(opt.Files))
	sem := make(chan struct{}, threads)
	done := make(chan struct{}, len(opt.Files))

	for _, path := range opt.Files {
		path := path
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- struct{}{} }()
			src, err := util.ReadSource(path)
			if err != nil {
				collector.Report(path, fmt.Errorf("reading source: %w", err))
				return
			}
			err = compileOne(opt, src, os.Stdout)
			collector.Report(path, err)
		}()
	}
	for range opt.Files {
		<-done
	}
	collector.Stop()

	failed := 0
	for _, r := range collector.Results() {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", r.Path, r.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("batch compile reported errors in %d file(s)", failed)
	}
	return nil
}

// runFixtures loads and runs a YAML fixture suite, printing one
// pass/fail line per asserted declaration.
func runFixtures(opt Options) error {
	s, err := fixtures.Load(opt.Fixtures)
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(opt.Fixtures)
	results := fixtures.Run(s, baseDir, hostModules()...)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("FAIL %s: %s\n", r.Fixture, r.Err)
			continue
		}
		if !r.Passed() {
			failed++
			fmt.Printf("FAIL %s.%s: got %s, want %s\n", r.Fixture, r.Decl, r.Got, r.Want)
			continue
		}
		fmt.Printf("PASS %s.%s = %s\n", r.Fixture, r.Decl, r.Got)
	}
	if failed > 0 {
		return fmt.Errorf("%d fixture assertion(s) failed", failed)
	}
	return nil
}
