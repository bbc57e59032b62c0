package rpc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"hexmon/internal/memory"
)

const readRequestSize = 13

func writeFrame(w io.Writer, head byte, payload []byte) error {
	packet := make([]byte, 3+len(payload))
	packet[0] = head
	binary.LittleEndian.PutUint16(packet[1:3], uint16(len(payload)))
	copy(packet[3:], payload)
	_, err := w.Write(packet)
	return err
}

func readFrame(r io.Reader) (byte, []byte, error) {
	hdr := make([]byte, 3)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, nil, err
	}
	ln := int(binary.LittleEndian.Uint16(hdr[1:3]))
	var data []byte
	if ln > 0 {
		data = make([]byte, ln)
		if _, err := io.ReadFull(r, data); err != nil {
			return 0, nil, err
		}
	}
	return hdr[0], data, nil
}

func bitmapLen(size int) int {
	return (size + 7) / 8
}

// EncodeSparse lays out [addr, addr+size) as a presence bitmap (LSB first)
// followed by size data bytes. Absent bytes are zero in the data part.
func EncodeSparse(addr uint64, size int, data memory.SparseMap) []byte {
	n := bitmapLen(size)
	out := make([]byte, n+size)
	for i := 0; i < size; i++ {
		b, ok := data.Get(addr + uint64(i))
		if !ok {
			continue
		}
		out[i/8] |= 1 << (i % 8)
		out[n+i] = b
	}
	return out
}

func DecodeSparse(addr uint64, size int, payload []byte) (memory.SparseMap, error) {
	n := bitmapLen(size)
	if len(payload) != n+size {
		return nil, fmt.Errorf("read_sparse payload size mismatch: got=%d expected=%d", len(payload), n+size)
	}
	out := memory.NewSparseMap()
	for i := 0; i < size; i++ {
		if payload[i/8]&(1<<(i%8)) == 0 {
			continue
		}
		out.Set(addr+uint64(i), payload[n+i])
	}
	return out, nil
}

func decodeReadRequest(payload []byte) (memory.AddressMode, uint64, uint32, error) {
	if len(payload) != readRequestSize {
		return 0, 0, 0, fmt.Errorf("read_sparse request must be %d bytes, got %d", readRequestSize, len(payload))
	}
	mode := memory.AddressMode(payload[0])
	if mode != memory.Physical && mode != memory.Virtual {
		return 0, 0, 0, fmt.Errorf("unknown address mode %d", payload[0])
	}
	size := binary.LittleEndian.Uint32(payload[9:13])
	if size > MaxChunk {
		return 0, 0, 0, errors.New("read_sparse request exceeds chunk limit")
	}
	return mode, binary.LittleEndian.Uint64(payload[1:9]), size, nil
}
