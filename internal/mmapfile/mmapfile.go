// Package mmapfile memory-maps a file for direct byte-slice access,
// growing the mapping in place when the backing file needs more room. It
// backs the bucket index region, where in-place byte manipulation
// (shifting entries during reindex, zeroing a tombstoned offset) is far
// cheaper through a mapped slice than through repeated Seek+Read+Write
// syscalls.
package mmapfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// File is a memory-mapped view over (a region of) an *os.File.
type File struct {
	f        *os.File
	data     []byte
	writable bool
	prot     int
}

// Map maps [offset, offset+length) of f. When readOnly is false the
// mapping uses PROT_READ|PROT_WRITE and MAP_SHARED so writes through Bytes()
// are reflected back to the file on Sync/Munmap.
//
// offset must be a multiple of the platform's allocation granularity;
// callers that need to expose a sub-range starting elsewhere should map
// from the nearest aligned offset below it and slice the result themselves.
func Map(f *os.File, offset int64, length int, readOnly bool) (*File, error) {
	prot := unix.PROT_READ
	if !readOnly {
		prot |= unix.PROT_WRITE
	}

	data, err := unix.Mmap(int(f.Fd()), offset, length, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	return &File{f: f, data: data, writable: !readOnly, prot: prot}, nil
}

// Bytes returns the mapped region as a byte slice. Mutating it mutates the
// underlying file once synced; callers must not retain the slice past
// Remap or Close.
func (m *File) Bytes() []byte {
	return m.data
}

// Len returns the length of the current mapping.
func (m *File) Len() int {
	return len(m.data)
}

// Sync flushes dirty pages of the mapping to the backing file.
func (m *File) Sync() error {
	if !m.writable {
		return nil
	}
	return unix.Msync(m.data, unix.MS_SYNC)
}

// Remap unmaps the current region and maps [offset, offset+length) in its
// place, preserving writability. Callers use this after truncating or
// extending the backing file to resize the view (mmap regions cannot be
// resized in place on Linux; a fresh mapping is required).
func (m *File) Remap(offset int64, length int) error {
	if err := m.unmapLocked(); err != nil {
		return err
	}
	data, err := unix.Mmap(int(m.f.Fd()), offset, length, m.prot, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

// Close flushes and unmaps the region. It does not close the underlying file.
func (m *File) Close() error {
	if m.data == nil {
		return nil
	}
	if err := m.Sync(); err != nil {
		return err
	}
	return m.unmapLocked()
}

func (m *File) unmapLocked() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
