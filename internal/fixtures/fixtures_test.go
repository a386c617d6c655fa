package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"exc/internal/builtins"
)

func writeFixtureFiles(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "sum.exc"), []byte("expr a: Integer = 1 + 2 + 6;\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	yamlSrc := `
fixtures:
  - name: sum
    source: sum.exc
    expect:
      a: "9"
`
	if err := os.WriteFile(filepath.Join(dir, "suite.yaml"), []byte(yamlSrc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadParsesFixtureFile(t *testing.T) {
	dir := t.TempDir()
	writeFixtureFiles(t, dir)

	s, err := Load(filepath.Join(dir, "suite.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Fixtures) != 1 || s.Fixtures[0].Name != "sum" {
		t.Fatalf("Load() = %+v, want one fixture named \"sum\"", s.Fixtures)
	}
}

func TestRunPassingFixture(t *testing.T) {
	dir := t.TempDir()
	writeFixtureFiles(t, dir)

	s, err := Load(filepath.Join(dir, "suite.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	results := Run(s, dir, builtins.New())
	if len(results) != 1 {
		t.Fatalf("Run() returned %d results, want 1", len(results))
	}
	r := results[0]
	if !r.Passed() {
		t.Fatalf("Run() result = %+v, want Passed() true", r)
	}
	if r.Got != "9" {
		t.Fatalf("Got = %q, want \"9\"", r.Got)
	}
}

func TestRunFailingFixtureReportsMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sum.exc"), []byte("expr a: Integer = 1 + 1;\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	yamlSrc := `
fixtures:
  - name: sum
    source: sum.exc
    expect:
      a: "9"
`
	if err := os.WriteFile(filepath.Join(dir, "suite.yaml"), []byte(yamlSrc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Load(filepath.Join(dir, "suite.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	results := Run(s, dir, builtins.New())
	if len(results) != 1 {
		t.Fatalf("Run() returned %d results, want 1", len(results))
	}
	if results[0].Passed() {
		t.Fatal("expected a failing result for a mismatched expectation")
	}
	if results[0].Got != "2" {
		t.Fatalf("Got = %q, want \"2\"", results[0].Got)
	}
}

func TestRunCompileErrorReportsSingleResult(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.exc"), []byte("expr a: Integer = undefined_name;\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	yamlSrc := `
fixtures:
  - name: bad
    source: bad.exc
    expect:
      a: "1"
`
	if err := os.WriteFile(filepath.Join(dir, "suite.yaml"), []byte(yamlSrc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Load(filepath.Join(dir, "suite.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	results := Run(s, dir, builtins.New())
	if len(results) != 1 {
		t.Fatalf("Run() returned %d results, want 1", len(results))
	}
	if results[0].Err == nil {
		t.Fatal("expected an error result for a program that fails to compile")
	}
}
