package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

func Main(argv []string) int {
	return run(argv, os.Stdin, os.Stdout, os.Stderr)
}

func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	args, parsed, err := parseCLI(argv, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, formatCliError(err, args.Color))
		return 2
	}
	env, err := newSession(args, stdout, stderr)
	if err != nil {
		return fail(stderr, err, args.Color)
	}
	defer env.close()

	cmd := "shell"
	if selected := parsed.Selected(); selected != nil {
		cmd = normalizeSelectedPath(selected.Path())
	}
	switch cmd {
	case "shell":
		return cmdShell(env, stdin)
	case "px", "printHex":
		return cmdPrintHex(env, args.PX.Args)
	case "serve":
		return cmdServe(env, args.Serve.Listen)
	case "ping":
		return cmdPing(env)
	default:
		return 2
	}
}

func normalizeSelectedPath(path string) string {
	path = cliPathAliasPattern.ReplaceAllString(path, "")
	return strings.Join(strings.Fields(strings.ReplaceAll(path, ".", " ")), " ")
}

func parseCLI(argv []string, stdout, stderr io.Writer) (cliArgs, *kong.Context, error) {
	var args cliArgs
	parser, err := kong.New(
		&args,
		kong.Name("hexmon"),
		kong.Description("Sparse memory hex dump monitor."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:   true,
			FlagsLast: true,
		}),
		kong.Help(colorizedHelpPrinter(kong.DefaultHelpPrinter)),
	)
	if err != nil {
		return args, nil, err
	}
	parsed, err := parser.Parse(argv)
	if err != nil {
		return args, nil, err
	}
	return args, parsed, nil
}
