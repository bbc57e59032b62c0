package rpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"hexmon/internal/logger"
	"hexmon/internal/memory"
)

type Backend interface {
	ReadSparse(ctx context.Context, mode memory.AddressMode, addr, size uint64) (memory.SparseMap, error)
}

// Server answers the framed protocol for a read-only backend. Requests on
// one connection are handled in order.
type Server struct {
	backend Backend
	logger  *slog.Logger
}

func NewServer(backend Backend, log *slog.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{backend: backend, logger: log}
}

// Serve accepts until ctx is done or the listener fails. The listener is
// closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		wg.Wait()
	}()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	for {
		cmd, payload, err := readFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.Debug("rpc connection closed", "err", err)
			}
			return
		}
		status, reply := s.handle(ctx, Command(cmd), payload)
		if err := writeFrame(conn, status, reply); err != nil {
			s.logger.Debug("rpc reply failed", "err", err)
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, cmd Command, payload []byte) (byte, []byte) {
	switch cmd {
	case CmdPing:
		return StatusOK, []byte("pong")
	case CmdReadSparse:
		mode, addr, size, err := decodeReadRequest(payload)
		if err != nil {
			return StatusBadRequest, []byte(err.Error())
		}
		data, err := s.backend.ReadSparse(ctx, mode, addr, uint64(size))
		if err != nil {
			s.logger.Debug("rpc backend read failed", "mode", mode.String(), "addr", addr, "size", size, "err", err)
			return StatusReadFailed, []byte(err.Error())
		}
		return StatusOK, EncodeSparse(addr, int(size), data)
	}
	return StatusBadRequest, []byte("unknown command")
}
