package space

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"hexmon/internal/memory"
)

var ErrOverlap = errors.New("range overlaps an existing one")

// Segment is file content loaded at a physical address.
type Segment struct {
	Name string
	Addr uint64
	Data []byte
}

func (s Segment) End() uint64 {
	return s.Addr + uint64(len(s.Data))
}

// Mapping translates [VAddr, VAddr+Size) onto [PAddr, PAddr+Size).
type Mapping struct {
	VAddr uint64
	PAddr uint64
	Size  uint64
}

// Space is an in-process address space: physical segments plus virtual
// mappings onto them. It is not safe for mutation while being read.
type Space struct {
	segments []Segment
	mappings []Mapping
}

func New() *Space {
	return &Space{}
}

func overlaps(aStart, aEnd, bStart, bEnd uint64) bool {
	return aStart < bEnd && bStart < aEnd
}

func (s *Space) LoadFile(path string, paddr uint64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.AddSegment(path, paddr, data)
}

func (s *Space) AddSegment(name string, paddr uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := memory.CheckRange(paddr, uint64(len(data))); err != nil {
		return err
	}
	seg := Segment{Name: name, Addr: paddr, Data: data}
	for _, other := range s.segments {
		if overlaps(seg.Addr, seg.End(), other.Addr, other.End()) {
			return fmt.Errorf("%w: %s at 0x%x and %s at 0x%x", ErrOverlap, name, paddr, other.Name, other.Addr)
		}
	}
	s.segments = append(s.segments, seg)
	sort.Slice(s.segments, func(i, j int) bool { return s.segments[i].Addr < s.segments[j].Addr })
	return nil
}

func (s *Space) Map(vaddr, paddr, size uint64) error {
	if size == 0 {
		return errors.New("mapping size must be > 0")
	}
	if err := memory.CheckRange(vaddr, size); err != nil {
		return err
	}
	if err := memory.CheckRange(paddr, size); err != nil {
		return err
	}
	for _, other := range s.mappings {
		if overlaps(vaddr, vaddr+size, other.VAddr, other.VAddr+other.Size) {
			return fmt.Errorf("%w: mapping at 0x%x overlaps mapping at 0x%x", ErrOverlap, vaddr, other.VAddr)
		}
	}
	s.mappings = append(s.mappings, Mapping{VAddr: vaddr, PAddr: paddr, Size: size})
	sort.Slice(s.mappings, func(i, j int) bool { return s.mappings[i].VAddr < s.mappings[j].VAddr })
	return nil
}

func (s *Space) Segments() []Segment {
	return append([]Segment(nil), s.segments...)
}

func (s *Space) Mappings() []Mapping {
	return append([]Mapping(nil), s.mappings...)
}

func (s *Space) ReadSparse(ctx context.Context, mode memory.AddressMode, addr, size uint64) (memory.SparseMap, error) {
	if err := memory.CheckRange(addr, size); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch mode {
	case memory.Physical:
		out := memory.NewSparseMap()
		s.readPhysical(out, addr, addr, size)
		return out, nil
	case memory.Virtual:
		return s.readVirtual(addr, size), nil
	}
	return nil, fmt.Errorf("unsupported address mode %s", mode)
}

// readPhysical stores bytes of [paddr, paddr+size) into out, keyed from base.
func (s *Space) readPhysical(out memory.SparseMap, base, paddr, size uint64) {
	end := paddr + size
	for _, seg := range s.segments {
		if !overlaps(paddr, end, seg.Addr, seg.End()) {
			continue
		}
		from := max(paddr, seg.Addr)
		to := min(end, seg.End())
		out.SetRange(base+(from-paddr), seg.Data[from-seg.Addr:to-seg.Addr])
	}
}

func (s *Space) readVirtual(vaddr, size uint64) memory.SparseMap {
	out := memory.NewSparseMap()
	end := vaddr + size
	for _, m := range s.mappings {
		mEnd := m.VAddr + m.Size
		if !overlaps(vaddr, end, m.VAddr, mEnd) {
			continue
		}
		from := max(vaddr, m.VAddr)
		to := min(end, mEnd)
		s.readPhysical(out, from, m.PAddr+(from-m.VAddr), to-from)
	}
	return out
}

// ParseSegmentSpec parses "path@paddr"; without "@" the file loads at 0.
func ParseSegmentSpec(spec string) (string, uint64, error) {
	idx := strings.LastIndex(spec, "@")
	if idx < 0 {
		return spec, 0, nil
	}
	path := spec[:idx]
	if path == "" {
		return "", 0, fmt.Errorf("Invalid file spec %q: empty path", spec)
	}
	addr, err := memory.ParseAddress(spec[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("Invalid file spec %q: %w", spec, err)
	}
	return path, addr, nil
}

// ParseMappingSpec parses "vaddr:paddr:size".
func ParseMappingSpec(spec string) (Mapping, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return Mapping{}, fmt.Errorf("Invalid map spec %q: expected vaddr:paddr:size", spec)
	}
	var vals [3]uint64
	for i, part := range parts {
		v, err := memory.ParseAddress(part)
		if err != nil {
			return Mapping{}, fmt.Errorf("Invalid map spec %q: %w", spec, err)
		}
		vals[i] = v
	}
	return Mapping{VAddr: vals[0], PAddr: vals[1], Size: vals[2]}, nil
}
