package rpc

import (
	"context"
	"errors"
	"math"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hexmon/internal/memory"
)

type fakeBackend struct {
	data  memory.SparseMap
	err   error
	calls atomic.Int32
}

func (f *fakeBackend) ReadSparse(_ context.Context, mode memory.AddressMode, addr, size uint64) (memory.SparseMap, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := memory.NewSparseMap()
	for i := uint64(0); i < size; i++ {
		if b, ok := f.data.Get(addr + i); ok {
			if mode == memory.Virtual {
				b ^= 0xFF
			}
			out.Set(addr+i, b)
		}
	}
	return out, nil
}

func startServer(t *testing.T, backend Backend) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "hexmon")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "rpc.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(backend, nil).Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return path
}

func TestSparseCodec(t *testing.T) {
	data := memory.NewSparseMap()
	data.Set(0x10, 0xAA)
	data.Set(0x18, 0x00)
	data.Set(0x1A, 0x55)
	payload := EncodeSparse(0x10, 11, data)
	require.Len(t, payload, 2+11)
	assert.Equal(t, byte(0x01), payload[0])
	assert.Equal(t, byte(0x05), payload[1])

	got, err := DecodeSparse(0x10, 11, payload)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = DecodeSparse(0x10, 11, payload[:5])
	assert.Error(t, err)
}

func TestClientPing(t *testing.T) {
	path := startServer(t, &fakeBackend{})
	c := New(path, nil)
	defer c.Close()
	assert.Equal(t, path, c.Path())
	data, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))
	assert.NoError(t, c.LastError())
}

func TestClientReadSparseChunks(t *testing.T) {
	data := memory.NewSparseMap()
	for i := uint64(0); i < 3*MaxChunk; i += 3 {
		data.Set(0x10000+i, byte(i))
	}
	backend := &fakeBackend{data: data}
	c := New(startServer(t, backend), nil)
	defer c.Close()

	size := uint64(2*MaxChunk + 5)
	got, err := c.ReadSparse(context.Background(), memory.Physical, 0x10000, size)
	require.NoError(t, err)
	assert.Equal(t, int32(3), backend.calls.Load())
	for i := uint64(0); i < size; i++ {
		want, wantOK := data.Get(0x10000 + i)
		b, ok := got.Get(0x10000 + i)
		require.Equal(t, wantOK, ok, "offset %d", i)
		assert.Equal(t, want, b)
	}

	got, err = c.ReadSparse(context.Background(), memory.Virtual, 0x10000, 4)
	require.NoError(t, err)
	b, ok := got.Get(0x10003)
	require.True(t, ok)
	assert.Equal(t, byte(3)^0xFF, b)
}

func TestClientReadSparseZeroSize(t *testing.T) {
	backend := &fakeBackend{}
	c := New(startServer(t, backend), nil)
	defer c.Close()
	got, err := c.ReadSparse(context.Background(), memory.Physical, 0x10, 0)
	require.NoError(t, err)
	assert.Zero(t, got.Len())
	assert.Zero(t, backend.calls.Load())
}

func TestClientBackendError(t *testing.T) {
	c := New(startServer(t, &fakeBackend{err: errors.New("no such page")}), nil)
	defer c.Close()
	_, err := c.ReadSparse(context.Background(), memory.Physical, 0, 16)
	var cmdErr CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, StatusReadFailed, cmdErr.Status)
	assert.Contains(t, err.Error(), "no such page")
	assert.Equal(t, err, c.LastError())
}

func TestClientRejectsOverflowLocally(t *testing.T) {
	backend := &fakeBackend{}
	c := New(startServer(t, backend), nil)
	defer c.Close()
	_, err := c.ReadSparse(context.Background(), memory.Physical, math.MaxUint64-1, 4)
	assert.ErrorIs(t, err, memory.ErrAddressOverflow)
	assert.Zero(t, backend.calls.Load())
}

func TestServerBadRequests(t *testing.T) {
	c := New(startServer(t, &fakeBackend{}), nil)
	defer c.Close()

	_, err := c.Call(context.Background(), Command(0x7F), nil)
	var cmdErr CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, StatusBadRequest, cmdErr.Status)

	_, err = c.Call(context.Background(), CmdReadSparse, []byte{0, 1})
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, StatusBadRequest, cmdErr.Status)

	_, err = c.Call(context.Background(), CmdReadSparse, encodeReadRequest(memory.AddressMode(3), 0, 1))
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, string(cmdErr.Data), "unknown address mode")

	_, err = c.Call(context.Background(), CmdReadSparse, encodeReadRequest(memory.Physical, 0, MaxChunk+1))
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, StatusBadRequest, cmdErr.Status)
}

func TestClientConnectError(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent.sock"), nil)
	c.SetTimeout(50 * time.Millisecond)
	_, err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot connect to socket")
}
