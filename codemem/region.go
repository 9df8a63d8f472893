// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codemem manages executable memory for generated code.
package codemem

import (
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

var ErrSealed = xerrors.New("code memory region is sealed")

// Region of anonymous memory.  It is writable until sealed, and executable
// after that.  The methods may be called concurrently; changes of the
// protection state are serialized.
type Region struct {
	mu     sync.Mutex
	mem    []byte
	sealed bool
}

// Map a region of at least size bytes.  The size is rounded up to page size.
func Map(size int) (*Region, error) {
	page := unix.Getpagesize()
	n := (size + page - 1) &^ (page - 1)
	if n == 0 {
		n = page
	}

	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, xerrors.Errorf("mmap %d bytes: %w", n, err)
	}

	return &Region{mem: mem}, nil
}

// Bytes of the whole region.
func (r *Region) Bytes() []byte { return r.mem }

// Sealed region may not be written directly.
func (r *Region) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// Addr of the first byte.
func (r *Region) Addr() uint64 {
	return addrOf(r.mem)
}

// Write b at offset.
func (r *Region) Write(offset int, b []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if offset < 0 || offset+len(b) > len(r.mem) {
		return xerrors.Errorf("write of %d bytes at offset %d exceeds region size %d", len(b), offset, len(r.mem))
	}

	copy(r.mem[offset:], b)
	return nil
}

// Seal makes the region executable and read-only, and flushes the
// instruction cache.
func (r *Region) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil
	}
	if err := unix.Mprotect(r.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return xerrors.Errorf("mprotect: %w", err)
	}

	r.sealed = true
	FlushICache(r.mem)
	return nil
}

// Relink stores 4 or 8 bytes of instructions at offset atomically.  A sealed
// region is temporarily made writable; it stays executable for the duration
// of the update.
func (r *Region) Relink(offset int, words []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if offset < 0 || offset+len(words) > len(r.mem) {
		return xerrors.Errorf("relink of %d bytes at offset %d exceeds region size %d", len(words), offset, len(r.mem))
	}

	if !r.sealed {
		return store(r.mem, offset, words)
	}

	if err := unix.Mprotect(r.mem, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return xerrors.Errorf("mprotect: %w", err)
	}
	err := store(r.mem, offset, words)
	if err2 := unix.Mprotect(r.mem, unix.PROT_READ|unix.PROT_EXEC); err == nil && err2 != nil {
		err = xerrors.Errorf("mprotect: %w", err2)
	}
	return err
}

// Close unmaps the region.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	return err
}
