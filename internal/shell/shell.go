// Package shell implements the guestshell command interpreter on top of a
// single guestfs handle.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/javanstorm/guestshell/pkg/guestfs"
)

// MaxArgs is the largest number of arguments a single command accepts.
const MaxArgs = 64

var (
	ErrTooManyArguments = errors.New("too many arguments in command")
	ErrEmptyCommand     = errors.New("empty command on command line")
)

const banner = `
Welcome to guestshell, the interactive shell for examining and
modifying virtual machine disk images.

Type: 'help' for help with commands
      'quit' to quit the shell

`

// Prompt is printed before each command in interactive mode.
const Prompt = "><fs> "

// Shell executes commands against one handle.
type Shell struct {
	h      *guestfs.Handle
	out    io.Writer
	errOut io.Writer
	quit   bool
}

// New creates a shell for h. Command output goes to out, diagnostics to errOut.
func New(h *guestfs.Handle, out, errOut io.Writer) *Shell {
	return &Shell{h: h, out: out, errOut: errOut}
}

// Handle returns the handle the shell operates on.
func (s *Shell) Handle() *guestfs.Handle {
	return s.h
}

// Quit reports whether a quit command has been executed.
func (s *Shell) Quit() bool {
	return s.quit
}

// SplitLine splits an input line at spaces and tabs into a command name and
// its arguments. An empty or blank line yields an empty name.
func SplitLine(line string) (string, []string, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
	if len(fields) == 0 {
		return "", nil, nil
	}
	if len(fields)-1 > MaxArgs {
		return "", nil, ErrTooManyArguments
	}
	return fields[0], fields[1:], nil
}

// Exec runs a single command.
func (s *Shell) Exec(ctx context.Context, name string, args []string) error {
	c, ok := lookup(name)
	if !ok {
		return fmt.Errorf("unknown command %q, use 'help' to list commands", name)
	}
	if len(args) < c.minArgs || len(args) > c.maxArgs {
		return fmt.Errorf("%s: wrong number of arguments, usage: %s", c.name, c.usage)
	}
	return c.run(ctx, s, args)
}

// Run reads commands line by line from r until EOF or quit. In interactive
// mode a banner and prompt are printed. Command errors are reported to the
// error writer and do not stop the loop.
func (s *Shell) Run(ctx context.Context, r io.Reader, interactive bool) error {
	if interactive {
		fmt.Fprint(s.out, banner)
	}

	scanner := bufio.NewScanner(r)
	for !s.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		if interactive {
			fmt.Fprint(s.out, Prompt)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, args, err := SplitLine(line)
		if err == nil {
			err = s.Exec(ctx, name, args)
		}
		if err != nil {
			fmt.Fprintf(s.errOut, "guestshell: %v\n", err)
		}
	}
	if interactive {
		fmt.Fprintln(s.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	return nil
}

// RunCommandLine executes commands given as words, separated by lone ":"
// words, e.g. "add disk.img : launch : list-devices". The first failing
// command stops execution and its error is returned.
func (s *Shell) RunCommandLine(ctx context.Context, words []string) error {
	for len(words) > 0 && !s.quit {
		end := len(words)
		for i, w := range words {
			if w == ":" {
				end = i
				break
			}
		}

		if end == 0 {
			return ErrEmptyCommand
		}
		if end-1 > MaxArgs {
			return ErrTooManyArguments
		}
		if err := s.Exec(ctx, words[0], words[1:end]); err != nil {
			return err
		}

		if end == len(words) {
			break
		}
		words = words[end+1:]
	}
	return nil
}
