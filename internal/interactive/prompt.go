// Package interactive asks the user yes/no questions on a terminal.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Proceed
	ResponseNo                   // Decline
	ResponseQuit                 // Input closed or aborted
)

// Prompter handles interactive prompts.
type Prompter struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompter creates a prompter with stdin/stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsOutputTerminal checks if stdout is a terminal (TTY).
func IsOutputTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// prompt displays a question and reads a y/n answer. Empty input takes
// the default.
func (p *Prompter) prompt(def Response, format string, args ...interface{}) Response {
	_, _ = fmt.Fprintf(p.out, format, args...)
	if def == ResponseYes {
		_, _ = fmt.Fprint(p.out, " [Y/n] ")
	} else {
		_, _ = fmt.Fprint(p.out, " [y/N] ")
	}

	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		return ResponseQuit
	}

	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	switch input {
	case "":
		return def
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "q", "quit":
		return ResponseQuit
	default:
		_, _ = fmt.Fprintln(p.out, "Invalid response, assuming no.")
		return ResponseNo
	}
}

// Confirm asks question and reports whether the user said yes.
// The default answer is no.
func (p *Prompter) Confirm(question string) bool {
	return p.prompt(ResponseNo, "%s", question) == ResponseYes
}

// ConfirmDefaultYes is Confirm with yes as the default answer.
func (p *Prompter) ConfirmDefaultYes(question string) bool {
	return p.prompt(ResponseYes, "%s", question) == ResponseYes
}

// Confirm asks on stdin/stdout. It returns def without asking when stdin
// is not a terminal.
func Confirm(question string, def bool) bool {
	if !IsTerminal() {
		return def
	}
	p := NewPrompter()
	if def {
		return p.ConfirmDefaultYes(question)
	}
	return p.Confirm(question)
}
