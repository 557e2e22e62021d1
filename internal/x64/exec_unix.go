//go:build unix

package x64

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// allocExecutable maps an anonymous read/write/execute region. Trampolines
// live for the process lifetime, so the mapping is never unmapped.
func allocExecutable(size int) ([]byte, error) {
	if size == 0 {
		size = 1
	}
	return unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANON)
}

func memBase(mem []byte) uintptr {
	return uintptr(unsafe.Pointer(&mem[0]))
}
