package lcd

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	monoOnce sync.Once
	monoFont *opentype.Font
	monoErr  error
)

func loadMono() (*opentype.Font, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = opentype.Parse(gomono.TTF)
	})
	return monoFont, monoErr
}

// Framebuffer is an in-memory Surface backed by an RGBA image.
// It is safe for concurrent use so a UI thread can snapshot it while the
// tick loop draws.
type Framebuffer struct {
	mu  sync.Mutex
	img *image.RGBA

	cursorX, cursorY int
	textColor        Color
	textSize         int

	faces map[int]font.Face
}

var _ Surface = (*Framebuffer)(nil)

// NewFramebuffer creates a black framebuffer of the given size.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		img:       image.NewRGBA(image.Rect(0, 0, width, height)),
		textColor: White,
		textSize:  1,
		faces:     make(map[int]font.Face),
	}
}

// Size returns the framebuffer dimensions.
func (f *Framebuffer) Size() (int, int) {
	b := f.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear fills the whole framebuffer.
func (f *Framebuffer) Clear(c Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	draw.Draw(f.img, f.img.Bounds(), image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
}

// FillRect fills a rectangle, clipped to the framebuffer.
func (f *Framebuffer) FillRect(x, y, w, h int, c Color) {
	if w <= 0 || h <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := image.Rect(x, y, x+w, y+h).Intersect(f.img.Bounds())
	draw.Draw(f.img, r, image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
}

// DrawRect draws a one pixel rectangle outline.
func (f *Framebuffer) DrawRect(x, y, w, h int, c Color) {
	if w <= 0 || h <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := x; i < x+w; i++ {
		f.set(i, y, c)
		f.set(i, y+h-1, c)
	}
	for j := y; j < y+h; j++ {
		f.set(x, j, c)
		f.set(x+w-1, j, c)
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (f *Framebuffer) DrawLine(x1, y1, x2, y2 int, c Color) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	e := dx + dy
	for {
		f.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x1 += sx
		}
		if e2 <= dx {
			e += dx
			y1 += sy
		}
	}
}

// FillCircle fills a circle of radius r centred at (x, y).
func (f *Framebuffer) FillCircle(x, y, r int, c Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				f.set(x+dx, y+dy, c)
			}
		}
	}
}

// SetCursor moves the text cursor; (x, y) is the top-left of the next character.
func (f *Framebuffer) SetCursor(x, y int) {
	f.mu.Lock()
	f.cursorX, f.cursorY = x, y
	f.mu.Unlock()
}

// SetTextColor sets the colour used by Print.
func (f *Framebuffer) SetTextColor(c Color) {
	f.mu.Lock()
	f.textColor = c
	f.mu.Unlock()
}

// SetTextSize sets the text magnification; values below 1 are treated as 1.
func (f *Framebuffer) SetTextSize(size int) {
	if size < 1 {
		size = 1
	}
	f.mu.Lock()
	f.textSize = size
	f.mu.Unlock()
}

// Print draws s at the cursor. A newline moves the cursor to the start of
// the next line.
func (f *Framebuffer) Print(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	face, err := f.face(f.textSize)
	if err != nil {
		return
	}
	ascent := face.Metrics().Ascent.Ceil()
	advance := CharWidth * f.textSize
	lineHeight := LineHeight * f.textSize

	d := &font.Drawer{
		Dst:  f.img,
		Src:  image.NewUniform(f.textColor.RGBA()),
		Face: face,
	}
	for _, r := range s {
		if r == '\n' {
			f.cursorX = 0
			f.cursorY += lineHeight
			continue
		}
		d.Dot = fixed.P(f.cursorX, f.cursorY+ascent)
		d.DrawString(string(r))
		f.cursorX += advance
	}
}

// Printf formats according to a format specifier and prints the result.
func Printf(s Surface, format string, args ...any) {
	s.Print(fmt.Sprintf(format, args...))
}

// Image returns a copy of the current framebuffer contents.
func (f *Framebuffer) Image() *image.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := image.NewRGBA(f.img.Bounds())
	copy(out.Pix, f.img.Pix)
	return out
}

// At returns the colour of a pixel, mainly for tests.
func (f *Framebuffer) At(x, y int) Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.img.RGBAAt(x, y)
	return RGB565(c.R, c.G, c.B)
}

func (f *Framebuffer) set(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}).In(f.img.Bounds()) {
		return
	}
	f.img.SetRGBA(x, y, c.RGBA())
}

// face returns a cached monospace face sized for the text magnification.
func (f *Framebuffer) face(size int) (font.Face, error) {
	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	mono, err := loadMono()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(mono, &opentype.FaceOptions{
		Size:    float64(LineHeight * size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	f.faces[size] = face
	return face, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
