package lcd

// OpKind identifies a recorded drawing operation.
type OpKind int

const (
	OpClear OpKind = iota
	OpFillRect
	OpDrawRect
	OpDrawLine
	OpFillCircle
	OpText
)

// Op is one recorded drawing call. Rect and line calls use X1..Y2 as
// (x, y, w, h) or (x1, y1, x2, y2) respectively.
type Op struct {
	Kind           OpKind
	X1, Y1, X2, Y2 int
	R              int
	Color          Color
	Text           string
	Size           int
}

// Recorder is a Surface that records drawing calls instead of rasterising.
// Used by headless nodes and tests.
type Recorder struct {
	Width, Height int
	Ops           []Op

	cursorX, cursorY int
	textColor        Color
	textSize         int
	discard          bool
}

var _ Surface = (*Recorder)(nil)

// NewRecorder creates a recorder reporting the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height, textColor: White, textSize: 1}
}

// Discard makes the recorder drop every operation. Used for nodes nobody
// looks at.
func (r *Recorder) Discard() *Recorder {
	r.discard = true
	r.Ops = nil
	return r
}

func (r *Recorder) add(op Op) {
	if r.discard {
		return
	}
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) Size() (int, int) { return r.Width, r.Height }

func (r *Recorder) Clear(c Color) {
	r.add(Op{Kind: OpClear, Color: c})
}

func (r *Recorder) FillRect(x, y, w, h int, c Color) {
	r.add(Op{Kind: OpFillRect, X1: x, Y1: y, X2: w, Y2: h, Color: c})
}

func (r *Recorder) DrawRect(x, y, w, h int, c Color) {
	r.add(Op{Kind: OpDrawRect, X1: x, Y1: y, X2: w, Y2: h, Color: c})
}

func (r *Recorder) DrawLine(x1, y1, x2, y2 int, c Color) {
	r.add(Op{Kind: OpDrawLine, X1: x1, Y1: y1, X2: x2, Y2: y2, Color: c})
}

func (r *Recorder) FillCircle(x, y, radius int, c Color) {
	r.add(Op{Kind: OpFillCircle, X1: x, Y1: y, R: radius, Color: c})
}

func (r *Recorder) SetCursor(x, y int) {
	r.cursorX, r.cursorY = x, y
}

func (r *Recorder) SetTextColor(c Color) { r.textColor = c }

func (r *Recorder) SetTextSize(size int) {
	if size < 1 {
		size = 1
	}
	r.textSize = size
}

// Print records s at the cursor and advances it the same way Framebuffer does.
func (r *Recorder) Print(s string) {
	start := 0
	for i, ch := range s {
		if ch != '\n' {
			continue
		}
		r.text(s[start:i])
		r.cursorX = 0
		r.cursorY += LineHeight * r.textSize
		start = i + 1
	}
	r.text(s[start:])
}

func (r *Recorder) text(s string) {
	if s == "" {
		return
	}
	r.add(Op{
		Kind:  OpText,
		X1:    r.cursorX,
		Y1:    r.cursorY,
		Color: r.textColor,
		Text:  s,
		Size:  r.textSize,
	})
	r.cursorX += len([]rune(s)) * CharWidth * r.textSize
}

// Filter returns the recorded operations of one kind.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Texts returns the printed strings in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Filter(OpText) {
		out = append(out, op.Text)
	}
	return out
}

// Reset discards recorded operations.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}
