package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"hexmon/hexmon"
	"hexmon/internal/rpc"
)

func cmdShell(env *session, stdin io.Reader) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sh := hexmon.NewShell(env.core, stdin, env.color)
	if err := sh.Run(ctx); err != nil {
		return env.fail(err)
	}
	return 0
}

func cmdPrintHex(env *session, args []string) int {
	if err := hexmon.NewPrintHex().Run(context.Background(), env.core, args); err != nil {
		return env.fail(err)
	}
	return 0
}

func cmdServe(env *session, listen string) int {
	if env.space == nil {
		return env.fail(errors.New("serve needs local --file/--map input, not --socket"))
	}
	if _, err := os.Stat(listen); err == nil {
		if err := os.Remove(listen); err != nil {
			return env.fail(err)
		}
	}
	ln, err := net.Listen("unix", listen)
	if err != nil {
		return env.fail(err)
	}
	defer os.Remove(listen)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(env.core.Stderr, "listening on %s (%d segment(s), %d mapping(s))\n",
		listen, len(env.space.Segments()), len(env.space.Mappings()))
	err = rpc.NewServer(env.space, env.core.Logger).Serve(ctx, ln)
	if err != nil && !errors.Is(err, context.Canceled) {
		return env.fail(err)
	}
	return 0
}

func cmdPing(env *session) int {
	if env.client == nil {
		return env.fail(errors.New("ping needs --socket"))
	}
	data, err := env.client.Ping(context.Background())
	if err != nil {
		return env.fail(err)
	}
	_, _ = fmt.Fprintln(env.core.Stdout, string(data))
	return 0
}

func (s *session) fail(err error) int {
	fmt.Fprintln(s.core.Stderr, hexmon.FormatError(err, s.color))
	return 1
}
