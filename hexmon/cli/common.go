package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"hexmon/hexmon"
	"hexmon/internal/logger"
	"hexmon/internal/memory"
	"hexmon/internal/rpc"
	"hexmon/internal/space"
	"hexmon/internal/style"
)

type session struct {
	core   hexmon.Core
	space  *space.Space
	client *rpc.Client
	color  bool
}

func (s *session) close() {
	if s.client != nil {
		s.client.Close()
	}
}

func newSession(args cliArgs, stdout, stderr io.Writer) (*session, error) {
	loc, err := memory.ParseAddress(args.Seek)
	if err != nil {
		return nil, hexmon.ParseError{Token: args.Seek, Err: err}
	}
	mode, err := memory.ParseAddressMode(args.Mode)
	if err != nil {
		return nil, err
	}
	palette, err := style.ParsePalette(args.Palette)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{Debug: args.Debug, Output: stderr})
	s := &session{color: style.Enabled(args.Color)}
	s.core = hexmon.Core{
		Loc:    loc,
		Mode:   mode,
		Styler: style.New(args.Color, palette),
		Stdout: stdout,
		Stderr: stderr,
		Logger: log,
	}
	if args.Socket != "" {
		if len(args.Files) > 0 || len(args.Maps) > 0 {
			return nil, errors.New("--socket cannot be combined with --file or --map")
		}
		s.client = rpc.New(args.Socket, log)
		s.core.Backend = s.client
		return s, nil
	}
	s.space, err = loadSpace(args.Files, args.Maps)
	if err != nil {
		return nil, err
	}
	s.core.Backend = s.space
	return s, nil
}

func loadSpace(files, maps []string) (*space.Space, error) {
	sp := space.New()
	for _, spec := range files {
		path, paddr, err := space.ParseSegmentSpec(spec)
		if err != nil {
			return nil, err
		}
		if err := sp.LoadFile(expandHome(path), paddr); err != nil {
			return nil, err
		}
	}
	for _, spec := range maps {
		m, err := space.ParseMappingSpec(spec)
		if err != nil {
			return nil, err
		}
		if err := sp.Map(m.VAddr, m.PAddr, m.Size); err != nil {
			return nil, err
		}
	}
	return sp, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

func colorizedHelpPrinter(base kong.HelpPrinter) kong.HelpPrinter {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		out := ctx.Stdout
		var buf bytes.Buffer
		ctx.Stdout = &buf
		err := base(options, ctx)
		ctx.Stdout = out
		if err != nil {
			return err
		}
		text := buf.String()
		if !style.Enabled("") {
			_, werr := io.WriteString(out, text)
			return werr
		}
		_, werr := io.WriteString(out, colorizeHelpText(text))
		return werr
	}
}

func colorizeHelpText(text string) string {
	const (
		reset = "\x1b[0m"
		head  = "\x1b[1;36m"
		cmd   = "\x1b[1;33m"
		flag  = "\x1b[32m"
	)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trim := strings.TrimSpace(line)
		leading := len(line) - len(strings.TrimLeft(line, " "))
		switch {
		case strings.HasPrefix(trim, "Usage:") || trim == "Commands:" || trim == "Arguments:" || trim == "Flags:":
			lines[i] = head + trim + reset
		case leading <= 6 && strings.HasPrefix(trim, "-"):
			lines[i] = colorizeLeadingToken(line, flag, reset)
		case leading == 2 && trim != "" && strings.Contains(trim, "  "):
			lines[i] = colorizeLeadingToken(line, cmd, reset)
		}
	}
	return strings.Join(lines, "\n")
}

func colorizeLeadingToken(line string, color string, reset string) string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	trim := strings.TrimSpace(line)
	sep := strings.Index(trim, "  ")
	if sep < 0 {
		return indent + color + trim + reset
	}
	return indent + color + trim[:sep] + reset + trim[sep:]
}

func fail(stderr io.Writer, err error, colorSetting string) int {
	fmt.Fprintln(stderr, formatCliError(err, colorSetting))
	return 1
}

func formatCliError(err error, colorSetting string) string {
	return hexmon.FormatError(err, style.Enabled(colorSetting))
}
