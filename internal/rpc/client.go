package rpc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"hexmon/internal/logger"
	"hexmon/internal/memory"
)

type Command byte

const (
	CmdPing       Command = 1
	CmdReadSparse Command = 2
)

const (
	StatusOK         byte = 0
	StatusReadFailed byte = 1
	StatusBadRequest byte = 2
)

// MaxChunk bounds the bytes requested by a single CmdReadSparse so that
// bitmap plus data stays inside a frame.
const MaxChunk = 0x1000

type CommandError struct {
	Status byte
	Data   []byte
}

func (e CommandError) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("remote command error: status=%d", e.Status)
	}
	return fmt.Sprintf("remote command error: status=%d msg=%s", e.Status, strings.TrimSpace(string(e.Data)))
}

type Client struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	conn      net.Conn
	lastError error
}

func New(path string, log *slog.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		path:    path,
		timeout: 500 * time.Millisecond,
		logger:  log,
	}
}

func (c *Client) Path() string {
	return c.path
}

func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
}

func (c *Client) disconnectLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) ensureConnectedLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.path)
	if err != nil {
		return formatConnectError(c.path, err)
	}
	c.conn = conn
	c.logger.Debug("rpc connected", "socket", c.path)
	return nil
}

func formatConnectError(path string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		msg := errno.Error()
		if msg != "" {
			msg = strings.ToUpper(msg[:1]) + msg[1:]
		}
		return fmt.Errorf("Cannot connect to socket %s: [Errno %d] %s", path, int(errno), msg)
	}
	return fmt.Errorf("Cannot connect to socket %s: %s", path, err)
}

func (c *Client) setDeadlineLocked(ctx context.Context) {
	if c.conn == nil {
		return
	}
	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = c.conn.SetDeadline(deadline)
}

func (c *Client) Call(ctx context.Context, command Command, payload []byte) ([]byte, error) {
	if len(payload) > 0xFFFF {
		return nil, fmt.Errorf("payload too large: %d", len(payload))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnectedLocked(ctx); err != nil {
		c.lastError = err
		return nil, err
	}
	c.setDeadlineLocked(ctx)

	if err := writeFrame(c.conn, byte(command), payload); err != nil {
		c.disconnectLocked()
		c.lastError = err
		return nil, err
	}
	status, data, err := readFrame(c.conn)
	if err != nil {
		c.disconnectLocked()
		c.lastError = err
		return nil, err
	}
	if status != StatusOK {
		err := CommandError{
			Status: status,
			Data:   append([]byte(nil), data...),
		}
		c.lastError = err
		return nil, err
	}
	c.lastError = nil
	return data, nil
}

func (c *Client) Ping(ctx context.Context) ([]byte, error) {
	return c.Call(ctx, CmdPing, nil)
}

// ReadSparse requests [addr, addr+size) in MaxChunk pieces and merges the
// replies.
func (c *Client) ReadSparse(ctx context.Context, mode memory.AddressMode, addr, size uint64) (memory.SparseMap, error) {
	if err := memory.CheckRange(addr, size); err != nil {
		return nil, err
	}
	out := memory.NewSparseMap()
	remaining := size
	cur := addr
	for remaining > 0 {
		take := remaining
		if take > MaxChunk {
			take = MaxChunk
		}
		data, err := c.Call(ctx, CmdReadSparse, encodeReadRequest(mode, cur, uint32(take)))
		if err != nil {
			return nil, err
		}
		chunk, err := DecodeSparse(cur, int(take), data)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("rpc read", "mode", mode.String(), "addr", fmt.Sprintf("0x%x", cur), "size", take, "present", chunk.Len())
		out.Merge(chunk)
		cur += take
		remaining -= take
	}
	return out, nil
}

func encodeReadRequest(mode memory.AddressMode, addr uint64, size uint32) []byte {
	payload := make([]byte, readRequestSize)
	payload[0] = byte(mode)
	binary.LittleEndian.PutUint64(payload[1:9], addr)
	binary.LittleEndian.PutUint32(payload[9:13], size)
	return payload
}
