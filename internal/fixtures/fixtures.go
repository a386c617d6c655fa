// Package fixtures runs "excc -fixtures PATH" (SPEC_FULL §7.5): a YAML file
// naming one or more source programs and the values their getter
// declarations are expected to produce, run as a pass/fail batch. Loading
// is grounded on sunholo-data-ailang/internal/eval_harness/models.go's
// yaml.Unmarshal-into-a-config-struct shape; running each fixture reuses
// the same Compile/ExecutionContext/valuefmt path a single-file run does,
// so a fixture asserts exactly what a human reading the program's printed
// output would see.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"exc"
	"exc/internal/registry"
	"exc/internal/valuefmt"
)

// Fixture is one source program and the values its declarations must
// produce. Source is a path relative to the fixture file's own directory,
// so a suite can be checked out and run from anywhere. Expect maps a
// declaration name to its expected value already rendered the way
// valuefmt.FormatValue renders it (e.g. "9", "true", `"hi"`, "1+2i"),
// avoiding a second YAML-to-Go-value type system to keep in sync with the
// language's own type table.
type Fixture struct {
	Name   string            `yaml:"name"`
	Source string            `yaml:"source"`
	Expect map[string]string `yaml:"expect"`
}

// Suite is a fixture file's top-level shape.
type Suite struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// Load reads and parses a fixture YAML file at path.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing fixture YAML: %w", err)
	}
	return &s, nil
}

// Result is one fixture's outcome.
type Result struct {
	Fixture string
	Decl    string
	Want    string
	Got     string
	Err     error
}

// Passed reports whether this result asserts successfully: no error, and
// Got matches Want.
func (r Result) Passed() bool {
	return r.Err == nil && r.Got == r.Want
}

// Run compiles and evaluates every fixture in s, relative to baseDir (the
// fixture file's directory), against modules, and returns one Result per
// expected declaration. A fixture whose source fails to compile or run
// reports a single Result carrying the error and no Decl/Want/Got.
func Run(s *Suite, baseDir string, modules ...registry.Module) []Result {
	var results []Result
	for _, f := range s.Fixtures {
		results = append(results, runOne(f, baseDir, modules...)...)
	}
	return results
}

func runOne(f Fixture, baseDir string, modules ...registry.Module) []Result {
	label := f.Name
	if label == "" {
		label = f.Source
	}

	path := f.Source
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return []Result{{Fixture: label, Err: fmt.Errorf("reading source: %w", err)}}
	}

	result, diags := exc.Compile(string(src), modules...)
	if diags.HasErrors() {
		return []Result{{Fixture: label, Err: fmt.Errorf("compile: %s", diags)}}
	}
	defer result.Close()

	ctx, err := exc.NewExecutionContext(result)
	if err != nil {
		return []Result{{Fixture: label, Err: fmt.Errorf("execution context: %w", err)}}
	}
	defer ctx.Close()

	out := make([]Result, 0, len(f.Expect))
	for _, d := range result.Declarations() {
		want, ok := f.Expect[d.Name]
		if !ok {
			continue
		}
		if d.Kind == exc.VarDeclKind {
			out = append(out, Result{Fixture: label, Decl: d.Name, Want: want, Err: fmt.Errorf("%q is a var declaration, has no value to assert against", d.Name)})
			continue
		}
		ptr, err := ctx.Eval(d.Name)
		if err != nil {
			out = append(out, Result{Fixture: label, Decl: d.Name, Want: want, Err: err})
			continue
		}
		got := valuefmt.FormatValue(d.Type.Name, ptr)
		out = append(out, Result{Fixture: label, Decl: d.Name, Want: want, Got: got})
	}
	return out
}
