package viewer

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorMuted lipgloss.Color = "8"
	colorInfo  lipgloss.Color = "6"
)

// Console prints samples and boot records as they arrive, one line each.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[string]lipgloss.Color
}

// NewConsole creates a console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, colors: make(map[string]lipgloss.Color)}
}

// Attach registers the console with the store.
func (c *Console) Attach(s *Store) {
	s.OnUpdate(func(device string, points []Point) {
		if len(points) > 0 {
			c.Sample(device, points[len(points)-1])
		}
	})
	s.OnBoot(c.Boot)
}

// Sample prints a sample line.
func (c *Console) Sample(device string, p Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, FormatSample(device, p, c.colorOf(device)))
}

// Boot prints a gateway boot line.
func (c *Console) Boot(b Boot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, FormatBoot(b))
}

func (c *Console) colorOf(device string) lipgloss.Color {
	if col, ok := c.colors[device]; ok {
		return col
	}
	rgba := DeviceColor(len(c.colors))
	col := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B))
	c.colors[device] = col
	return col
}

// FormatSample formats "[15:04:05] A1: T=23.45°C, H=56.70%, P=1013.20hPa".
func FormatSample(device string, p Point, idColor lipgloss.Color) string {
	timeStyle := lipgloss.NewStyle().Foreground(colorMuted)
	idStyle := lipgloss.NewStyle().Foreground(idColor)
	return fmt.Sprintf("%s %s: T=%.2f°C, H=%.2f%%, P=%.2fhPa",
		timeStyle.Render("["+p.Timestamp.Format("15:04:05")+"]"),
		idStyle.Render(device),
		p.T, p.H, p.P)
}

// FormatBoot formats a gateway boot line.
func FormatBoot(b Boot) string {
	style := lipgloss.NewStyle().Foreground(colorInfo)
	return style.Render(fmt.Sprintf("Gateway boot: MAC=%s, CH=%d", b.MAC, b.Channel))
}
