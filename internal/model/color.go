package model

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// NormalizeColor turns "#RGB", "#RRGGBB" or "rgb(r, g, b)" into lower case
// "#rrggbb". The empty string stays empty.
func NormalizeColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "rgb("), ")"), ",")
		if len(parts) != 3 {
			return "", errors.Wrapf(ErrMalformedInput, "color %q", s)
		}
		var rgb [3]float64
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return "", errors.Wrapf(ErrMalformedInput, "color %q", s)
			}
			rgb[i] = float64(v) / 255
		}
		return colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}.Hex(), nil
	}

	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return "", errors.Wrapf(ErrMalformedInput, "color %q: %v", s, err)
	}
	return c.Hex(), nil
}
