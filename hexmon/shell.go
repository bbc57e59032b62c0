package hexmon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"hexmon/internal/memory"
)

const shellQuitHelp = "q (quit, exit)"

type Shell struct {
	core     Core
	color    bool
	in       *bufio.Reader
	commands map[string]Command
	order    []Command
}

func NewShell(core Core, in io.Reader, color bool) *Shell {
	s := &Shell{
		core:     core,
		color:    color,
		in:       bufio.NewReader(in),
		commands: map[string]Command{},
	}
	s.Register(NewPrintHex())
	return s
}

func (s *Shell) Register(cmd Command) {
	s.order = append(s.order, cmd)
	for _, name := range cmd.Names() {
		s.commands[strings.ToLower(name)] = cmd
	}
}

func (s *Shell) Core() Core {
	return s.core
}

func (s *Shell) prompt() string {
	return fmt.Sprintf("[0x%08x]> ", s.core.Loc)
}

// Run reads commands until EOF, quit, ctx cancellation, or an output fault.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if _, err := io.WriteString(s.core.Stdout, s.prompt()); err != nil {
			return err
		}
		line, err := s.readLine(ctx)
		if err != nil {
			fmt.Fprintln(s.core.Stdout)
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		quit, err := s.Exec(ctx, line)
		if err != nil {
			if !IsCommandError(err) {
				return err
			}
			fmt.Fprintln(s.core.Stderr, FormatError(err, s.color))
		}
		if quit {
			return nil
		}
	}
}

func (s *Shell) readLine(ctx context.Context) (string, error) {
	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := s.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			errCh <- err
			return
		}
		lineCh <- line
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		return "", err
	case line := <-lineCh:
		return line, nil
	}
}

// Exec runs one command line against the session.
func (s *Shell) Exec(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	name, args := parts[0], parts[1:]
	switch strings.ToLower(name) {
	case "q", "quit", "exit":
		return true, nil
	case "help", "?":
		return false, s.printHelp()
	case "seek", "s":
		return false, s.seek(args)
	case "mode":
		return false, s.mode(args)
	}
	cmd, ok := s.commands[strings.ToLower(name)]
	if !ok {
		_, err := fmt.Fprintf(s.core.Stdout, "Unknown command %q. Type help for a list.\n", name)
		return false, err
	}
	return false, cmd.Run(ctx, s.core, args)
}

func (s *Shell) printHelp() error {
	lines := make([]string, 0, len(s.order)+4)
	for _, cmd := range s.order {
		lines = append(lines, cmd.Help())
	}
	lines = append(lines,
		formatHelp("seek", "s", "[addr]", "Show or set the current location"),
		formatHelp("mode", "", "[phy|vir]", "Show or set the address mode"),
		formatHelp("help", "?", "", "Show this help"),
		formatHelp(shellQuitHelp, "", "", "Leave the shell"),
	)
	_, err := io.WriteString(s.core.Stdout, strings.Join(lines, "\n")+"\n")
	return err
}

func (s *Shell) seek(args []string) error {
	switch len(args) {
	case 0:
		_, err := fmt.Fprintf(s.core.Stdout, "0x%x\n", s.core.Loc)
		return err
	case 1:
		addr, err := memory.ParseAddress(args[0])
		if err != nil {
			return ParseError{Token: args[0], Err: err}
		}
		s.core.Loc = addr
		return nil
	}
	return ArityError{Command: "seek", Want: 1, Got: len(args)}
}

func (s *Shell) mode(args []string) error {
	switch len(args) {
	case 0:
		_, err := fmt.Fprintln(s.core.Stdout, s.core.Mode.String())
		return err
	case 1:
		mode, err := memory.ParseAddressMode(args[0])
		if err != nil {
			return ParseError{Token: args[0], Expect: "phy or vir", Err: err}
		}
		s.core.Mode = mode
		return nil
	}
	return ArityError{Command: "mode", Want: 1, Got: len(args)}
}
