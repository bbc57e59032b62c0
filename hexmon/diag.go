package hexmon

import (
	"errors"
	"fmt"
	"strings"

	"hexmon/internal/rpc"
)

// FormatError renders err as a one-line badge diagnostic.
func FormatError(err error, color bool) string {
	if err == nil {
		return ""
	}
	var commandErr rpc.CommandError
	if errors.As(err, &commandErr) {
		msg := strings.TrimSpace(string(commandErr.Data))
		if msg == "" {
			msg = err.Error()
		}
		var readErr ReadError
		if errors.As(err, &readErr) {
			msg = "Read Failed: " + msg
		}
		return formatBadge(fmt.Sprintf("%d", commandErr.Status), msg, color)
	}
	return formatBadge("ERR", err.Error(), color)
}

func formatBadge(code string, msg string, color bool) string {
	if color {
		return "\x1b[41;97;1m " + code + " \x1b[0m " + msg
	}
	return "[" + code + "] " + msg
}

// IsCommandError reports whether err is one of the per-invocation failures a
// session reports and then carries on from.
func IsCommandError(err error) bool {
	var arityErr ArityError
	var parseErr ParseError
	var readErr ReadError
	return errors.As(err, &arityErr) || errors.As(err, &parseErr) || errors.As(err, &readErr)
}

func formatHelp(name, alias, args, desc string) string {
	head := name
	if alias != "" {
		head += " (" + alias + ")"
	}
	if args != "" {
		head += " " + args
	}
	return fmt.Sprintf("%-24s %s", head, desc)
}
