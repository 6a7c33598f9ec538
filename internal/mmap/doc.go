// Package mmap provides read-only memory-mapped file access.
//
// LocalStore maps archived run frames so that header checks and checksum
// verification read straight from the page cache.
//
// # Usage
//
//	m, err := mmap.Open("runs/0193....evz")
//	if err != nil { ... }
//	defer m.Close()
//
//	header, err := m.Slice(0, 16) // zero-copy view
//	_ = m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (Advise is a no-op)
//
// # Thread Safety
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not use slices returned by Slice after Close.
package mmap
