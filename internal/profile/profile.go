package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// DefaultColor is the stroke/fill pair used when no color is configured.
const DefaultColor = "#FF2B34,#005FE4"

var ErrInvalidColor = errors.New("invalid icon color")

var colorValidator = validator.New()

// XoColor is the user's accent color as a stroke/fill pair.
type XoColor struct {
	Stroke string
	Fill   string
}

// ParseXoColor parses the "#RRGGBB,#RRGGBB" representation used in journal metadata.
func ParseXoColor(s string) (XoColor, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return XoColor{}, fmt.Errorf("%w: %q: expected stroke and fill separated by a comma", ErrInvalidColor, s)
	}

	stroke := strings.ToUpper(strings.TrimSpace(parts[0]))
	fill := strings.ToUpper(strings.TrimSpace(parts[1]))
	for _, c := range []string{stroke, fill} {
		// hexcolor also accepts the #RGB short form which the journal does not use
		if len(c) != 7 {
			return XoColor{}, fmt.Errorf("%w: %q: expected #RRGGBB, got %q", ErrInvalidColor, s, c)
		}
		if err := colorValidator.Var(c, "required,hexcolor"); err != nil {
			return XoColor{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
		}
	}

	return XoColor{Stroke: stroke, Fill: fill}, nil
}

// MustParseXoColor is like ParseXoColor but panics on error.
func MustParseXoColor(s string) XoColor {
	c, err := ParseXoColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c XoColor) String() string {
	return c.Stroke + "," + c.Fill
}

// Profile exposes the current user's settings that end up in journal metadata.
type Profile interface {
	Color() XoColor
}

// Static is a Profile backed by a fixed color.
type Static struct {
	color XoColor
}

func NewStatic(color XoColor) *Static {
	return &Static{color: color}
}

func (p *Static) Color() XoColor {
	return p.color
}
