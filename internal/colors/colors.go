// Package colors implements the color math behind palette matching: hex/HSL
// conversions, circular hue arithmetic, color temperature and palette
// similarity scoring.
package colors

import (
	"fmt"
	"math"
	"strings"
)

// hexToRGB parses "#rrggbb" (or "rrggbb") into 8-bit channels.
func hexToRGB(hexColor string) (r, g, b uint8, err error) {
	s := strings.TrimPrefix(strings.TrimSpace(hexColor), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", hexColor)
	}
	var ri, gi, bi int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &ri, &gi, &bi); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", hexColor, err)
	}
	return uint8(ri), uint8(gi), uint8(bi), nil
}

// rgbToHex formats 8-bit channels as "#rrggbb".
func rgbToHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// HexToHSL converts a hex color to hue [0, 360), saturation [0, 1] and
// lightness [0, 1].
func HexToHSL(hexColor string) (h, s, l float64, err error) {
	ri, gi, bi, err := hexToRGB(hexColor)
	if err != nil {
		return 0, 0, 0, err
	}
	r := float64(ri) / 255.0
	g := float64(gi) / 255.0
	b := float64(bi) / 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	l = (maxC + minC) / 2

	if delta == 0 {
		return 0, 0, l, nil
	}

	if l < 0.5 {
		s = delta / (maxC + minC)
	} else {
		s = delta / (2 - maxC - minC)
	}

	switch maxC {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s, l, nil
}

// HSLToHex converts HSL back to a hex color. Out-of-range saturation and
// lightness are clamped to [0, 1], hue is wrapped onto [0, 360).
func HSLToHex(h, s, l float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp01(s)
	l = clamp01(l)

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return rgbToHex(
		uint8(math.Round((r+m)*255)),
		uint8(math.Round((g+m)*255)),
		uint8(math.Round((b+m)*255)),
	)
}

// CircularHueDistance returns the angular distance between two hues in
// degrees, always in [0, 180].
func CircularHueDistance(h1, h2 float64) float64 {
	d := math.Abs(math.Mod(h1, 360) - math.Mod(h2, 360))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// warmPeakHue is the hue treated as maximally warm; its complement (azure)
// is maximally cool.
const warmPeakHue = 30.0

// CalculateTemperature maps a color to [-1, +1], negative for cool, positive
// for warm. The hue mapping is piecewise linear around the warm peak and the
// result is scaled by saturation, so fully desaturated colors report a
// temperature near zero regardless of hue.
func CalculateTemperature(hue, saturation, lightness float64) float64 {
	_ = lightness // temperature is hue/saturation driven
	d := CircularHueDistance(hue, warmPeakHue)
	raw := 1 - 2*d/180
	return raw * clamp01(saturation)
}

// CircularMeanHue computes the circular mean of hues in degrees, returned in
// [0, 360). Returns 0 for an empty input.
func CircularMeanHue(hues []float64) float64 {
	if len(hues) == 0 {
		return 0
	}
	var sinSum, cosSum float64
	for _, h := range hues {
		rad := h * math.Pi / 180
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}
	if sinSum == 0 && cosSum == 0 {
		return 0
	}
	mean := math.Atan2(sinSum, cosSum) * 180 / math.Pi
	if mean < 0 {
		mean += 360
	}
	return mean
}

// Metrics are the derived scalar metrics of a palette, cached on extraction
// so constraint filtering never has to touch the raw swatches.
type Metrics struct {
	AvgHue           float64
	AvgSaturation    float64
	AvgLightness     float64
	ColorTemperature float64
}

// ComputeMetrics derives the scalar metrics from a set of swatch colors.
// Unparseable entries are skipped; an input with no valid colors yields zero
// metrics.
func ComputeMetrics(swatches []string) Metrics {
	var hues, sats, lights []float64
	for _, hex := range swatches {
		if hex == "" {
			continue
		}
		h, s, l, err := HexToHSL(hex)
		if err != nil {
			continue
		}
		hues = append(hues, h)
		sats = append(sats, s)
		lights = append(lights, l)
	}
	if len(hues) == 0 {
		return Metrics{}
	}

	m := Metrics{
		AvgHue:        CircularMeanHue(hues),
		AvgSaturation: mean(sats),
		AvgLightness:  mean(lights),
	}
	m.ColorTemperature = CalculateTemperature(m.AvgHue, m.AvgSaturation, m.AvgLightness)
	return m
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
