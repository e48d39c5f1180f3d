// Package interp executes lowered IR at build time: a small register VM
// whose only purpose is running pragma build scripts to populate build
// settings.
package interp

import (
	"encoding/binary"

	"github.com/adeptlang/adept/internal/diag"
)

// Memory is the interpreter's address space, split into a stack half and
// a heap half. The low page stays reserved so address zero is never
// readable: null dereferences fault instead of aliasing real data.
const (
	reservedTop = 0x1000
	stackBase   = uint64(reservedTop)
	stackLimit  = uint64(1) << 24
	heapBase    = uint64(1) << 32
)

type Memory struct {
	stack []byte
	heap  []byte

	stackTop uint64
	heapTop  uint64
}

func NewMemory() *Memory {
	return &Memory{
		stackTop: stackBase,
		heapTop:  heapBase,
	}
}

// AllocStack reserves size bytes on the stack and returns the address.
func (m *Memory) AllocStack(size uint64) (uint64, *diag.Report) {
	addr := m.stackTop
	if addr+size > stackLimit {
		return 0, diag.New(diag.INT001, "interp", diag.None, "build-script stack overflow")
	}
	m.stackTop += size
	need := int(m.stackTop - stackBase)
	for len(m.stack) < need {
		m.stack = append(m.stack, make([]byte, need-len(m.stack))...)
	}
	return addr, nil
}

// AllocHeap reserves size bytes on the heap and returns the address.
func (m *Memory) AllocHeap(size uint64) uint64 {
	addr := m.heapTop
	m.heapTop += size
	need := int(m.heapTop - heapBase)
	for len(m.heap) < need {
		m.heap = append(m.heap, make([]byte, need-len(m.heap))...)
	}
	return addr
}

func (m *Memory) slice(addr, size uint64) ([]byte, *diag.Report) {
	switch {
	case addr < reservedTop:
		return nil, diag.New(diag.INT001, "interp", diag.None,
			"invalid read/write at reserved address 0x%x", addr)
	case addr >= stackBase && addr+size <= m.stackTop:
		off := addr - stackBase
		return m.stack[off : off+size], nil
	case addr >= heapBase && addr+size <= m.heapTop:
		off := addr - heapBase
		return m.heap[off : off+size], nil
	}
	return nil, diag.New(diag.INT001, "interp", diag.None,
		"invalid memory access at 0x%x", addr)
}

// Read loads size bytes little-endian.
func (m *Memory) Read(addr, size uint64) (uint64, *diag.Report) {
	buf, rep := m.slice(addr, size)
	if rep != nil {
		return 0, rep
	}
	var full [8]byte
	copy(full[:], buf)
	return binary.LittleEndian.Uint64(full[:]), nil
}

// Write stores size bytes little-endian.
func (m *Memory) Write(addr, size, value uint64) *diag.Report {
	buf, rep := m.slice(addr, size)
	if rep != nil {
		return rep
	}
	var full [8]byte
	binary.LittleEndian.PutUint64(full[:], value)
	copy(buf, full[:size])
	return nil
}

// CString reads a NUL-terminated string.
func (m *Memory) CString(addr uint64) (string, *diag.Report) {
	var out []byte
	for {
		b, rep := m.Read(addr, 1)
		if rep != nil {
			return "", rep
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, byte(b))
		addr++
		if len(out) > 1<<16 {
			return "", diag.New(diag.INT001, "interp", diag.None,
				"unterminated string at 0x%x", addr)
		}
	}
}

// InternCString copies a string into the heap with a trailing NUL.
func (m *Memory) InternCString(s string) uint64 {
	addr := m.AllocHeap(uint64(len(s)) + 1)
	off := addr - heapBase
	copy(m.heap[off:], s)
	m.heap[off+uint64(len(s))] = 0
	return addr
}
