package scale

import (
	"log/slog"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Measurer reports the rendered width of a line of text at a font size, in
// world units at scale 1.
type Measurer interface {
	LineWidth(s string, size float64) float64
}

// RuneMeasurer approximates glyph advances from rune count. It backs tests
// and the degraded path when the embedded font fails to parse.
type RuneMeasurer struct{}

func (RuneMeasurer) LineWidth(s string, size float64) float64 {
	return float64(len([]rune(s))) * size * 0.55
}

// FontMeasurer measures with a real truetype face built from the embedded
// Go font, the same face family the PNG exporter draws with.
type FontMeasurer struct {
	fnt   *truetype.Font
	faces map[float64]font.Face
}

func NewFontMeasurer() (*FontMeasurer, error) {
	fnt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{fnt: fnt, faces: make(map[float64]font.Face)}, nil
}

func (m *FontMeasurer) face(size float64) font.Face {
	if f, ok := m.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(m.fnt, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	m.faces[size] = f
	return f
}

func (m *FontMeasurer) LineWidth(s string, size float64) float64 {
	return float64(font.MeasureString(m.face(size), s)) / 64
}

// DefaultMeasurer returns the truetype measurer every host should use, so
// sticky wrap agrees with the face the exporter draws with. It falls back to
// rune approximation if the embedded font fails to parse.
func DefaultMeasurer(log *slog.Logger) Measurer {
	fm, err := NewFontMeasurer()
	if err != nil {
		if log != nil {
			log.Warn("font unavailable, using approximate text measurement", "err", err)
		}
		return RuneMeasurer{}
	}
	return fm
}

// wrapText greedily wraps text at maxWidth and returns the lines plus the
// widest line's measured width. Explicit newlines are respected; a single
// word wider than maxWidth gets its own line rather than being split.
func wrapText(m Measurer, text string, size, maxWidth float64) (lines []string, widest float64) {
	if maxWidth < size {
		maxWidth = size
	}
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			cand := cur + " " + w
			if m.LineWidth(cand, size) > maxWidth {
				lines = append(lines, cur)
				cur = w
			} else {
				cur = cand
			}
		}
		lines = append(lines, cur)
	}
	for _, l := range lines {
		if w := m.LineWidth(l, size); w > widest {
			widest = w
		}
	}
	return lines, widest
}
