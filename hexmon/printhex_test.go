package hexmon

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hexmon/internal/memory"
	"hexmon/internal/space"
)

type recordingBackend struct {
	data  memory.SparseMap
	err   error
	modes []memory.AddressMode
}

func (r *recordingBackend) ReadSparse(_ context.Context, mode memory.AddressMode, addr, size uint64) (memory.SparseMap, error) {
	r.modes = append(r.modes, mode)
	if r.err != nil {
		return nil, r.err
	}
	if err := memory.CheckRange(addr, size); err != nil {
		return nil, err
	}
	return r.data, nil
}

func testCore(backend SparseReader) (Core, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return Core{Loc: 0x100, Mode: memory.Physical, Backend: backend, Stdout: &stdout, Stderr: &stderr}, &stdout, &stderr
}

func TestPrintHexExample(t *testing.T) {
	s := space.New()
	require.NoError(t, s.AddSegment("abc", 0x100, []byte("ABCDEFGHIJKLMNOP")))
	core, stdout, stderr := testCore(s)

	require.NoError(t, NewPrintHex().Run(context.Background(), core, []string{"18"}))
	want := strings.Join([]string{
		memory.Banner,
		"0x00000100 4142 4344 4546 4748 494a 4b4c 4d4e 4f50  ABCDEFGHIJKLMNOP",
		"0x00000110 **** " + strings.Repeat(" ", 35) + " **",
		"",
	}, "\n")
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, stderr.String())
}

func TestPrintHexSelectsBackendMode(t *testing.T) {
	backend := &recordingBackend{data: memory.NewSparseMap()}
	core, _, _ := testCore(backend)
	require.NoError(t, NewPrintHex().Run(context.Background(), core, []string{"0x10"}))
	core.Mode = memory.Virtual
	require.NoError(t, NewPrintHex().Run(context.Background(), core, []string{"0b10000"}))
	assert.Equal(t, []memory.AddressMode{memory.Physical, memory.Virtual}, backend.modes)
}

func TestPrintHexZeroSize(t *testing.T) {
	core, stdout, _ := testCore(&recordingBackend{})
	require.NoError(t, NewPrintHex().Run(context.Background(), core, []string{"0"}))
	assert.Equal(t, memory.Banner+"\n", stdout.String())
}

func TestPrintHexArity(t *testing.T) {
	for _, args := range [][]string{nil, {"1", "2"}, {"1", "2", "3"}} {
		backend := &recordingBackend{}
		core, stdout, _ := testCore(backend)
		err := NewPrintHex().Run(context.Background(), core, args)
		var arityErr ArityError
		require.ErrorAs(t, err, &arityErr)
		assert.Equal(t, len(args), arityErr.Got)
		assert.Equal(t, 1, arityErr.Want)
		assert.Empty(t, stdout.String())
		assert.Empty(t, backend.modes, "backend must not be called")
	}
}

func TestPrintHexParseError(t *testing.T) {
	backend := &recordingBackend{}
	core, stdout, _ := testCore(backend)
	err := NewPrintHex().Run(context.Background(), core, []string{"xyz"})
	var parseErr ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "xyz", parseErr.Token)
	assert.ErrorIs(t, err, memory.ErrInvalidNumber)
	assert.Equal(t, "Expect Hex, binary, Octal or Decimal value but found xyz instead", err.Error())
	assert.Empty(t, stdout.String())
	assert.Empty(t, backend.modes)
}

func TestPrintHexReadError(t *testing.T) {
	cause := errors.New("device gone")
	core, stdout, _ := testCore(&recordingBackend{err: cause})
	err := NewPrintHex().Run(context.Background(), core, []string{"16"})
	var readErr ReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Read Failed: device gone", err.Error())
	assert.Empty(t, stdout.String())
}

func TestPrintHexOverflowIsReadError(t *testing.T) {
	core, stdout, _ := testCore(space.New())
	core.Loc = math.MaxUint64 - 4
	err := NewPrintHex().Run(context.Background(), core, []string{"16"})
	var readErr ReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, memory.ErrAddressOverflow)
	assert.Empty(t, stdout.String())
}

func TestPrintHexMissingBackend(t *testing.T) {
	core, stdout, _ := testCore(nil)
	err := NewPrintHex().Run(context.Background(), core, []string{"16"})
	assert.True(t, IsCommandError(err))
	assert.Empty(t, stdout.String())
}

func TestPrintHexHelp(t *testing.T) {
	cmd := NewPrintHex()
	assert.Equal(t, []string{"printHex", "px"}, cmd.Names())
	assert.True(t, strings.HasPrefix(cmd.Help(), "printHex (px) [size]"))
	assert.Contains(t, cmd.Help(), "View data of at current location in hex format")
}
