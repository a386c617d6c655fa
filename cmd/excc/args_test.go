package main

import (
	"os"
	"testing"
)

func withArgs(t *testing.T, args []string, fn func()) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"excc"}, args...)
	defer func() { os.Args = old }()
	fn()
}

func TestParseArgsOptLevel(t *testing.T) {
	withArgs(t, []string{"-O2", "prog.exc"}, func() {
		opt, err := ParseArgs()
		if err != nil {
			t.Fatalf("ParseArgs: %v", err)
		}
		if opt.OptLevel != 2 {
			t.Errorf("OptLevel = %d, want 2", opt.OptLevel)
		}
		if len(opt.Files) != 1 || opt.Files[0] != "prog.exc" {
			t.Errorf("Files = %v, want [prog.exc]", opt.Files)
		}
	})
}

func TestParseArgsToggles(t *testing.T) {
	withArgs(t, []string{"-i", "-c", "-l", "-vb", "-ts", "-repl"}, func() {
		opt, err := ParseArgs()
		if err != nil {
			t.Fatalf("ParseArgs: %v", err)
		}
		if !opt.DisableIntrinsics || !opt.DisableFolding || !opt.EmitLLVM || !opt.Verbose || !opt.TokenStream || !opt.REPL {
			t.Fatalf("ParseArgs() = %+v, want every toggle set", opt)
		}
	})
}

func TestParseArgsOutputAndFixturesAndThreads(t *testing.T) {
	withArgs(t, []string{"-o", "out.ll", "-fixtures", "suite.yaml", "-j", "4"}, func() {
		opt, err := ParseArgs()
		if err != nil {
			t.Fatalf("ParseArgs: %v", err)
		}
		if opt.Out != "out.ll" {
			t.Errorf("Out = %q, want \"out.ll\"", opt.Out)
		}
		if opt.Fixtures != "suite.yaml" {
			t.Errorf("Fixtures = %q, want \"suite.yaml\"", opt.Fixtures)
		}
		if opt.Threads != 4 {
			t.Errorf("Threads = %d, want 4", opt.Threads)
		}
	})
}

func TestParseArgsMultipleFiles(t *testing.T) {
	withArgs(t, []string{"a.exc", "-f", "b.exc", "c.exc"}, func() {
		opt, err := ParseArgs()
		if err != nil {
			t.Fatalf("ParseArgs: %v", err)
		}
		want := []string{"a.exc", "b.exc", "c.exc"}
		if len(opt.Files) != len(want) {
			t.Fatalf("Files = %v, want %v", opt.Files, want)
		}
		for i := range want {
			if opt.Files[i] != want[i] {
				t.Fatalf("Files = %v, want %v", opt.Files, want)
			}
		}
	})
}

func TestParseArgsUnexpectedFlag(t *testing.T) {
	withArgs(t, []string{"-bogus"}, func() {
		if _, err := ParseArgs(); err == nil {
			t.Fatal("expected an error for an unrecognized flag")
		}
	})
}

func TestParseArgsMissingFlagArgument(t *testing.T) {
	withArgs(t, []string{"-o"}, func() {
		if _, err := ParseArgs(); err == nil {
			t.Fatal("expected an error for -o with no following argument")
		}
	})
}

func TestParseArgsThreadCountOutOfRange(t *testing.T) {
	withArgs(t, []string{"-j", "0"}, func() {
		if _, err := ParseArgs(); err == nil {
			t.Fatal("expected an error for a thread count of 0")
		}
	})
	withArgs(t, []string{"-j", "9999"}, func() {
		if _, err := ParseArgs(); err == nil {
			t.Fatal("expected an error for a thread count above maxThreads")
		}
	})
}
