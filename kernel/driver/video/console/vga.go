package console

import (
	"reflect"
	"unsafe"
)

const (
	clearColor = Black
	clearChar  = byte(' ')
)

// VGA implements a VGA-compatible text-mode console backed directly by
// the framebuffer physical address reported in the multiboot info block.
// There is no in-memory shadow buffer: the active console writes straight
// through to video memory, matching how the kernel runs before a proper
// windowing/compositing layer exists.
type VGA struct {
	width  uint16
	height uint16

	fb []uint16
}

// Init sets up the console to address the given framebuffer region.
func (cons *VGA) Init(width, height uint16, fbPhysAddr uintptr) {
	cons.width = width
	cons.height = height

	cons.fb = *(*[]uint16)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(cons.width) * int(cons.height),
		Cap:  int(cons.width) * int(cons.height),
		Data: fbPhysAddr,
	}))
}

// Clear clears the specified rectangular region.
func (cons *VGA) Clear(x, y, width, height uint16) {
	var (
		attr                 = uint16((clearColor << 4) | clearColor)
		clr                  = attr | uint16(clearChar)
		rowOffset, colOffset uint16
	)

	if x >= cons.width {
		x = cons.width
	}
	if y >= cons.height {
		y = cons.height
	}
	if x+width > cons.width {
		width = cons.width - x
	}
	if y+height > cons.height {
		height = cons.height - y
	}

	rowOffset = (y * cons.width) + x
	for ; height > 0; height, rowOffset = height-1, rowOffset+cons.width {
		for colOffset = rowOffset; colOffset < rowOffset+width; colOffset++ {
			cons.fb[colOffset] = clr
		}
	}
}

// Dimensions returns the console width and height in characters.
func (cons *VGA) Dimensions() (uint16, uint16) {
	return cons.width, cons.height
}

// Scroll shifts the console contents by lines rows in the given direction.
func (cons *VGA) Scroll(dir ScrollDir, lines uint16) {
	if lines == 0 || lines > cons.height {
		return
	}

	switch dir {
	case Up:
		copy(cons.fb, cons.fb[uint16(lines)*cons.width:])
	case Down:
		copy(cons.fb[uint16(lines)*cons.width:], cons.fb)
	}
}

// Write writes ch with the given attribute at the specified location.
func (cons *VGA) Write(ch byte, attr Attr, x, y uint16) {
	if x >= cons.width || y >= cons.height {
		return
	}
	cons.fb[(y*cons.width)+x] = uint16(attr)<<8 | uint16(ch)
}
