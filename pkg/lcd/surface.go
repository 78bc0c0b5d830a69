package lcd

import "image/color"

// Surface is the drawing surface of a small LCD panel. Coordinates are in
// pixels with the origin at the top-left corner. Text is printed at the text
// cursor, which advances as characters are printed.
type Surface interface {
	Size() (width, height int)
	Clear(c Color)
	FillRect(x, y, w, h int, c Color)
	DrawRect(x, y, w, h int, c Color)
	DrawLine(x1, y1, x2, y2 int, c Color)
	FillCircle(x, y, r int, c Color)
	SetCursor(x, y int)
	SetTextColor(c Color)
	SetTextSize(size int)
	Print(s string)
}

// Color is a 16-bit RGB565 colour as used by the panel controllers.
type Color uint16

// Panel palette.
const (
	Black   Color = 0x0000
	Navy    Color = 0x000F
	Blue    Color = 0x001F
	Green   Color = 0x07E0
	Cyan    Color = 0x07FF
	Red     Color = 0xF800
	Magenta Color = 0xF81F
	Yellow  Color = 0xFFE0
	Orange  Color = 0xFDA0
	White   Color = 0xFFFF
)

// RGB565 packs 8-bit channels into a Color.
func RGB565(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGBA expands the colour to 8 bits per channel.
func (c Color) RGBA() color.RGBA {
	r := uint8(c>>11) & 0x1f
	g := uint8(c>>5) & 0x3f
	b := uint8(c) & 0x1f
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xff,
	}
}

const (
	// CharWidth is the advance of one character at text size 1.
	CharWidth = 6
	// LineHeight is the height of one text line at text size 1.
	LineHeight = 8
)
