// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codemem

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegionRelink(t *testing.T) {
	r, err := Map(100)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if n := len(r.Bytes()); n < 100 || n%4096 != 0 && n%65536 != 0 {
		t.Errorf("size: %d", n)
	}
	if r.Addr()&15 != 0 {
		t.Errorf("address: %#x", r.Addr())
	}

	text := bytes.Repeat([]byte{0x60, 0, 0, 0}, 16)
	if err := r.Write(0, text); err != nil {
		t.Fatal(err)
	}
	if err := r.Seal(); err != nil {
		t.Fatal(err)
	}
	if err := r.Write(0, text); err != ErrSealed {
		t.Errorf("write to sealed region: %v", err)
	}

	words := make([]byte, 8)
	binary.NativeEndian.PutUint32(words[0:], 0x48000010)
	binary.NativeEndian.PutUint32(words[4:], 0x60000000)

	for i := 0; i < 2; i++ {
		if err := r.Relink(8, words); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(words, r.Bytes()[8:16]); diff != "" {
			t.Errorf("relink %d (-want +got):\n%s", i, diff)
		}
	}

	if err := r.Relink(4, words); err == nil {
		t.Error("unaligned relink succeeded")
	}
	if err := r.Relink(0, words[:3]); err == nil {
		t.Error("3-byte relink succeeded")
	}
}

func TestRegionConcurrentRelink(t *testing.T) {
	r, err := Map(4096)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err := r.Write(0, bytes.Repeat([]byte{0x60, 0, 0, 0}, 64)); err != nil {
		t.Fatal(err)
	}
	if err := r.Seal(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			words := make([]byte, 8)
			binary.NativeEndian.PutUint32(words[0:], 0x48000000|uint32(i)<<2)
			binary.NativeEndian.PutUint32(words[4:], 0x60000000)

			for n := 0; n < 10; n++ {
				if err := r.Relink(i*8, words); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	for i := 0; i < 32; i++ {
		if x := binary.NativeEndian.Uint32(r.Bytes()[i*8:]); x != 0x48000000|uint32(i)<<2 {
			t.Errorf("slot %d: %#x", i, x)
		}
	}
	if !r.Sealed() {
		t.Error("region is not sealed")
	}
}

func TestStore(t *testing.T) {
	text := make([]byte, 32)

	word := []byte{1, 2, 3, 4}
	Store(text, 12, word)
	if !bytes.Equal(text[12:16], word) {
		t.Errorf("store: %x", text[12:16])
	}
	if !bytes.Equal(text[:12], make([]byte, 12)) {
		t.Errorf("clobbered: %x", text[:12])
	}
}
