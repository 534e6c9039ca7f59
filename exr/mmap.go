//go:build !windows

package exr

import (
	"os"
	"syscall"
)

// mappedFile is a read-only memory mapping of a whole file.
type mappedFile struct {
	data []byte
	file *os.File
}

// mapFile maps the file at path. Empty files map to a nil slice.
func mapFile(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &mappedFile{file: f}, nil
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mappedFile{data: data, file: f}, nil
}

// Bytes returns the mapped contents. The slice is only valid until Close.
func (m *mappedFile) Bytes() []byte {
	return m.data
}

// Close unmaps the file and closes the underlying file handle.
func (m *mappedFile) Close() error {
	if m.data != nil {
		if err := syscall.Munmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}
	if m.file != nil {
		err := m.file.Close()
		m.file = nil
		return err
	}
	return nil
}
