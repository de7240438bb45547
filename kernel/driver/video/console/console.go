// Package console provides text-mode console output used by the early
// kernel logger before a full framebuffer driver is available.
package console

// Attr defines a color attribute.
type Attr uint16

// The set of attributes that can be passed to Write.
const (
	Black Attr = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGrey
	Grey
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	LightBrown
	White
)

// ScrollDir defines a scroll direction.
type ScrollDir uint8

// The supported scroll directions for Scroll calls.
const (
	Up ScrollDir = iota
	Down
)

// Console is implemented by objects that can function as a physical console.
type Console interface {
	// Dimensions returns the width and height of the console in characters.
	Dimensions() (uint16, uint16)

	// Clear clears the specified rectangular region.
	Clear(x, y, width, height uint16)

	// Scroll shifts the console contents by lines rows in the given direction.
	Scroll(dir ScrollDir, lines uint16)

	// Write writes a single character at the specified location.
	Write(ch byte, attr Attr, x, y uint16)
}
