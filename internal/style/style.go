package style

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Palette slots read by the dump renderer.
const (
	SentinelIndex = 4
	BannerIndex   = 5
)

type RGB struct {
	R, G, B uint8
}

type Palette []RGB

// Styler decorates text with the palette colour at index.
type Styler interface {
	Style(text string, index int) string
}

type Plain struct{}

func (Plain) Style(text string, _ int) string {
	return text
}

type ANSI struct {
	Palette Palette
}

func NewANSI(p Palette) ANSI {
	return ANSI{Palette: p}
}

func (a ANSI) Style(text string, index int) string {
	if index < 0 || index >= len(a.Palette) || text == "" {
		return text
	}
	rgb := a.Palette[index]
	c := color.RGB(int(rgb.R), int(rgb.G), int(rgb.B))
	c.EnableColor()
	return c.Sprint(text)
}

func DefaultPalette() Palette {
	return Palette{
		{0x58, 0x68, 0x75},
		{0xcb, 0x4b, 0x16},
		{0x85, 0x99, 0x00},
		{0x26, 0x8b, 0xd2},
		{0xdc, 0x32, 0x2f},
		{0x2a, 0xa1, 0x98},
		{0xb5, 0x89, 0x00},
	}
}

// ParseRGB accepts "#rrggbb" or "r,g,b".
func ParseRGB(value string) (RGB, error) {
	text := strings.TrimSpace(value)
	if strings.HasPrefix(text, "#") {
		if len(text) != 7 {
			return RGB{}, fmt.Errorf("Invalid colour: %s", value)
		}
		v, err := strconv.ParseUint(text[1:], 16, 32)
		if err != nil {
			return RGB{}, fmt.Errorf("Invalid colour: %s", value)
		}
		return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	}
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("Invalid colour: %s", value)
	}
	var out [3]uint8
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 0, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("Invalid colour component %q in %s", part, value)
		}
		out[i] = uint8(v)
	}
	return RGB{R: out[0], G: out[1], B: out[2]}, nil
}

// ParsePalette parses ';' separated colours. An empty value yields the
// default palette.
func ParsePalette(value string) (Palette, error) {
	if strings.TrimSpace(value) == "" {
		return DefaultPalette(), nil
	}
	fields := strings.Split(value, ";")
	out := make(Palette, 0, len(fields))
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			continue
		}
		rgb, err := ParseRGB(field)
		if err != nil {
			return nil, err
		}
		out = append(out, rgb)
	}
	if len(out) <= BannerIndex {
		return nil, fmt.Errorf("Palette needs at least %d colours, got %d", BannerIndex+1, len(out))
	}
	return out, nil
}

// Enabled resolves a colour setting of auto, always or never. Auto follows
// HEXMON_COLOR and then TERM.
func Enabled(setting string) bool {
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "always":
		return true
	case "never":
		return false
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("HEXMON_COLOR"))) {
	case "always":
		return true
	case "never":
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

func New(setting string, p Palette) Styler {
	if !Enabled(setting) {
		return Plain{}
	}
	return NewANSI(p)
}
