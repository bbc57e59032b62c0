package hexmon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"hexmon/internal/logger"
	"hexmon/internal/memory"
	"hexmon/internal/style"
)

// SparseReader resolves an address range to the bytes it can, leaving the
// rest absent from the returned map.
type SparseReader interface {
	ReadSparse(ctx context.Context, mode memory.AddressMode, addr, size uint64) (memory.SparseMap, error)
}

// Core is the session view handed to a command. Commands receive it by
// value and cannot move the caller's cursor or switch its mode.
type Core struct {
	Loc     uint64
	Mode    memory.AddressMode
	Backend SparseReader
	Styler  style.Styler
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
}

func (c Core) styler() style.Styler {
	if c.Styler == nil {
		return style.Plain{}
	}
	return c.Styler
}

func (c Core) logger() *slog.Logger {
	if c.Logger == nil {
		return logger.Discard()
	}
	return c.Logger
}

func readSparse(ctx context.Context, core Core, loc, size uint64) (memory.SparseMap, error) {
	var (
		data memory.SparseMap
		err  error
	)
	switch {
	case core.Backend == nil:
		err = errors.New("no memory backend")
	case core.Mode == memory.Physical:
		data, err = core.Backend.ReadSparse(ctx, memory.Physical, loc, size)
	case core.Mode == memory.Virtual:
		data, err = core.Backend.ReadSparse(ctx, memory.Virtual, loc, size)
	default:
		err = fmt.Errorf("unsupported address mode %s", core.Mode)
	}
	if err != nil {
		core.logger().Debug("sparse read failed", "mode", core.Mode.String(), "loc", loc, "size", size, "err", err)
		return nil, ReadError{Err: err}
	}
	core.logger().Debug("sparse read", "mode", core.Mode.String(), "loc", loc, "size", size, "present", data.Len())
	return data, nil
}
