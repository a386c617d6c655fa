// Package replsrv is the line-oriented interactive declaration evaluator
// behind "excc -repl" (SPEC_FULL §7.4). Structurally grounded on
// sunholo-data-ailang/internal/repl/repl.go: a liner.Liner prompt loop with
// persisted history and colored output via github.com/fatih/color. The
// evaluation model itself does not carry over, since this language has no
// expression-evaluator/environment of its own to thread between lines: each
// accepted line is compiled as a complete, independent one-or-few-
// declaration program (exc.Compile), given its own exc.ExecutionContext,
// and immediately run to print every getter declaration's value. The REPL
// keeps every CompileResult/ExecutionContext pair open for the rest of the
// session (so a var's backing store persists under a pointer a later Eval
// could still dereference); later lines cannot refer to earlier lines'
// declared names, since this language's declarations have no syntax for
// cross-program references.
package replsrv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"exc"
	"exc/internal/registry"
	"exc/internal/valuefmt"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// historyFileName is the liner history file's basename, placed under
// os.TempDir() the same way the grounding REPL does.
const historyFileName = ".exc_repl_history"

// session is one still-open compiled line: its CompileResult and the
// ExecutionContext run against it, kept alive for the rest of the REPL
// session so its var slots remain valid storage for as long as the REPL
// might print or reuse them.
type session struct {
	src    string
	result *exc.CompileResult
	ctx    *exc.ExecutionContext
}

// REPL is one interactive session: the host modules every compiled line
// registers against, plus every session compiled so far.
type REPL struct {
	modules  []registry.Module
	sessions []*session
	version  string
}

// New returns a REPL that compiles each line against modules, the same
// host module set a batch or single-file compile would use.
func New(version string, modules ...registry.Module) *REPL {
	if version == "" {
		version = "dev"
	}
	return &REPL{modules: modules, version: version}
}

// Close releases every still-open session's ExecutionContext and
// CompileResult, in the order they were compiled.
func (r *REPL) Close() {
	for _, s := range r.sessions {
		s.ctx.Close()
		s.result.Close()
	}
	r.sessions = nil
}

// Start runs the prompt loop against in/out until EOF or a :quit command,
// the same shape as the grounding REPL's Start: liner for history and
// multiline-free single-statement input, colored status lines, history
// persisted to a temp file across invocations.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), historyFileName)
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(in string) (c []string) {
		if !strings.HasPrefix(in, ":") {
			return nil
		}
		for _, cmd := range []string{":help", ":quit", ":history", ":reset"} {
			if strings.HasPrefix(cmd, in) {
				c = append(c, cmd)
			}
		}
		return c
	})

	fmt.Fprintf(out, "%s %s\n", bold("excc"), bold(r.version))
	fmt.Fprintln(out, dim("Type a var/const/expr declaration, :help for help, :quit to exit."))
	fmt.Fprintln(out)

	defer r.Close()

	for {
		input, err := line.Prompt("exc> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("Goodbye!"))
			return
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if input == ":quit" || input == ":q" || input == ":exit" {
				fmt.Fprintln(out, green("Goodbye!"))
				break
			}
			r.handleCommand(input, out)
			continue
		}

		r.evalLine(input, out)
	}

	if f, err := os.Create(historyPath); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// handleCommand dispatches a ":"-prefixed REPL command.
func (r *REPL) handleCommand(input string, out io.Writer) {
	switch input {
	case ":help":
		fmt.Fprintln(out, dim("  :help     show this message"))
		fmt.Fprintln(out, dim("  :history  list every line compiled this session"))
		fmt.Fprintln(out, dim("  :reset    close every open session and start clean"))
		fmt.Fprintln(out, dim("  :quit     exit"))
	case ":history":
		for i, s := range r.sessions {
			fmt.Fprintf(out, "%s %s\n", dim(fmt.Sprintf("%3d:", i+1)), s.src)
		}
	case ":reset":
		r.Close()
		fmt.Fprintln(out, yellow("all sessions closed"))
	default:
		fmt.Fprintf(out, "%s: unknown command %q\n", red("error"), input)
	}
}

// evalLine compiles one line as its own program, prints a diagnostic for
// every error the pipeline reports, or else runs it against a fresh
// ExecutionContext and prints every getter declaration's value.
func (r *REPL) evalLine(src string, out io.Writer) {
	result, diags := exc.Compile(src, r.modules...)
	if diags.HasErrors() {
		fmt.Fprint(out, red(diags.String()))
		return
	}

	ctx, err := exc.NewExecutionContext(result)
	if err != nil {
		result.Close()
		fmt.Fprintf(out, "%s: %v\n", red("error"), err)
		return
	}

	for _, d := range result.Declarations() {
		if d.Kind == exc.VarDeclKind {
			fmt.Fprintf(out, "%s %s: %s declared\n", dim("var"), d.Name, d.Type.Name)
			continue
		}
		ptr, err := ctx.Eval(d.Name)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}
		fmt.Fprintf(out, "%s = %s\n", green(d.Name), valuefmt.FormatValue(d.Type.Name, ptr))
	}

	r.sessions = append(r.sessions, &session{src: src, result: result, ctx: ctx})
}
