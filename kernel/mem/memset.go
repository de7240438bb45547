package mem

import (
	"reflect"
	"unsafe"
)

// Memset sets size bytes starting at addr to value. It overlays a byte
// slice on the target region and performs log2(size) doubling copies
// instead of a byte-at-a-time loop, since page-aligned regions are the
// common case and large.
func Memset(addr uintptr, value byte, size Size) {
	if size == 0 {
		return
	}

	target := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: addr,
	}))

	target[0] = value
	for index := Size(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}
