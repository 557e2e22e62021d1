//go:build windows

package x64

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// allocExecutable commits a read/write/execute region. Trampolines live for
// the process lifetime, so the region is never released.
func allocExecutable(size int) ([]byte, error) {
	if size == 0 {
		size = 1
	}
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE,
		windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func memBase(mem []byte) uintptr {
	return uintptr(unsafe.Pointer(&mem[0]))
}
