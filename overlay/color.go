package overlay

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned by ParseColor for unrecognised colour strings.
var ErrInvalidColor = errors.New("invalid color")

var (
	// DefaultFill is the fill of highlights without a colour:
	// rgba(255, 255, 0, 0.3).
	DefaultFill = color.NRGBA{R: 255, G: 255, B: 0, A: 77}

	// DefaultBorder is the border of highlights without a colour: #fbbf24.
	DefaultBorder = color.NRGBA{R: 0xfb, G: 0xbf, B: 0x24, A: 0xff}
)

// ParseColor parses a CSS colour: "#rgb", "#rrggbb", "rgb(r, g, b)",
// "rgba(r, g, b, a)" or a CSS colour name. Channels in rgb() and rgba()
// may be given as 0-255 or as percentages; alpha as 0-1 or a percentage.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch {
	case s == "":
		return color.NRGBA{}, ErrInvalidColor
	case s == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(s, "#"):
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		r, g, b := c.Clamped().RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
	case strings.HasPrefix(s, "rgb"):
		return parseFunctional(s)
	}

	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// parseFunctional parses rgb(...) and rgba(...).
func parseFunctional(s string) (color.NRGBA, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	name := s[:open]
	if name != "rgb" && name != "rgba" {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	args := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := parseChannel(args[i])
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		ch[i] = v
	}

	alpha := uint8(0xff)
	if len(args) == 4 {
		a, err := parseAlpha(args[3])
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = a
	}

	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

func parseChannel(s string) (uint8, error) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return to255(v / 100), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return to255(v / 255), nil
}

func parseAlpha(s string) (uint8, error) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return to255(v / 100), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return to255(v), nil
}

// to255 maps a 0-1 fraction to a byte, clamping out-of-range values.
func to255(f float64) uint8 {
	f = math.Max(0, math.Min(1, f))
	return uint8(math.Round(f * 255))
}

// cssColor formats c as rgba(r, g, b, a) with alpha in 0-1.
func cssColor(c color.NRGBA) string {
	a := strconv.FormatFloat(math.Round(float64(c.A)/255*100)/100, 'f', -1, 64)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, a)
}
