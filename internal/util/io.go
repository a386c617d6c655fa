// Package util holds small ambient helpers shared by cmd/excc: reading
// source text and collecting errors from parallel batch-compile workers.
// Grounded on hhramberg-go-vslc/src/util/io.go's ReadSource, trimmed of the
// assembly-writer-channel plumbing (Writer/ListenWrite) since this project
// has no textual-assembly output stage to buffer.
package util

import (
	"bufio"
	"errors"
	"os"
	"time"
)

// stdinReadTimeout bounds how long ReadSource waits for piped stdin input
// before giving up, matching the teacher's own 500ms budget.
const stdinReadTimeout = 500 * time.Millisecond

// ReadSource reads source text from path, or from stdin if path is empty.
// Reading from stdin waits at most stdinReadTimeout for the first byte,
// the same bound the teacher's ReadSource uses, so a CLI invocation with
// no file and no piped input fails fast instead of hanging.
func ReadSource(path string) (string, error) {
	if path != "" {
		b, err := os.ReadFile(path)
		return string(b), err
	}

	c := make(chan string, 1)
	cerr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		text, err := reader.ReadString(0)
		if err != nil && len(text) == 0 {
			cerr <- err
			return
		}
		c <- text
	}()

	select {
	case <-time.After(stdinReadTimeout):
		return "", errors.New("expected input from stdin, got none")
	case err := <-cerr:
		return "", err
	case s := <-c:
		return s, nil
	}
}
