// Package scope provides fyne widgets for the LCD simulation and the viewer
// plots.
package scope

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/envlink/pkg/lcd"
)

// Panel shows the contents of an LCD framebuffer.
type Panel struct {
	widget.BaseWidget

	fb    *lcd.Framebuffer
	scale float32
	image *canvas.Image
}

// NewPanel creates a panel for fb zoomed by scale.
func NewPanel(fb *lcd.Framebuffer, scale float32) *Panel {
	if scale <= 0 {
		scale = 1
	}
	img := canvas.NewImageFromImage(fb.Image())
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScalePixels

	p := &Panel{fb: fb, scale: scale, image: img}
	p.ExtendBaseWidget(p)
	return p
}

// Update copies the framebuffer into the panel. Safe to call from any
// goroutine.
func (p *Panel) Update(lcd.Surface) {
	snapshot := p.fb.Image()
	fyne.Do(func() {
		p.setImage(snapshot)
	})
}

func (p *Panel) setImage(img image.Image) {
	p.image.Image = img
	p.image.Refresh()
}

// CreateRenderer creates the widget renderer.
func (p *Panel) CreateRenderer() fyne.WidgetRenderer {
	return &panelRenderer{panel: p}
}

type panelRenderer struct {
	panel *Panel
}

func (r *panelRenderer) MinSize() fyne.Size {
	w, h := r.panel.fb.Size()
	return fyne.NewSize(float32(w)*r.panel.scale, float32(h)*r.panel.scale)
}

func (r *panelRenderer) Layout(size fyne.Size) {
	r.panel.image.Resize(size)
}

func (r *panelRenderer) Refresh() {
	r.panel.image.Refresh()
}

func (r *panelRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.panel.image}
}

func (r *panelRenderer) Destroy() {}
