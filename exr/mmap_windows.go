//go:build windows

package exr

import (
	"os"
	"syscall"
	"unsafe"
)

// mappedFile is a read-only memory mapping of a whole file.
type mappedFile struct {
	data   []byte
	file   *os.File
	handle syscall.Handle
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

	handle, err := syscall.CreateFileMapping(syscall.Handle(f.Fd()), nil, syscall.PAGE_READONLY, uint32(size>>32), uint32(size), nil)
	if err != nil {
		f.Close()
		return nil, err
	}
	ptr, err := syscall.MapViewOfFile(handle, syscall.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		syscall.CloseHandle(handle)
		f.Close()
		return nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
	return &mappedFile{data: data, file: f, handle: handle}, nil
}

// Bytes returns the mapped contents. The slice is only valid until Close.
func (m *mappedFile) Bytes() []byte {
	return m.data
}

// Close unmaps the file and closes the underlying file handle.
func (m *mappedFile) Close() error {
	if m.data != nil {
		syscall.UnmapViewOfFile(uintptr(unsafe.Pointer(&m.data[0])))
		m.data = nil
	}
	if m.handle != 0 {
		syscall.CloseHandle(m.handle)
		m.handle = 0
	}
	if m.file != nil {
		err := m.file.Close()
		m.file = nil
		return err
	}
	return nil
}
