// similarity.go: palette similarity scoring. The perceptual OKLAB variant is
// preferred when both palettes carry raw swatches; the HSL metric blend is
// the fallback.
package colors

import (
	"math"
)

// Palette is the shape similarity scoring operates on: the derived scalar
// metrics plus, optionally, the raw swatch colors for perceptual matching.
type Palette struct {
	Metrics
	Swatches []string
}

// Metric blend weights. Lightness and hue dominate because they drive the
// perceived character of a wallpaper.
const (
	hueWeight        = 0.35
	saturationWeight = 0.15
	lightnessWeight  = 0.35
	temperatureWeight = 0.15
)

// Similarity scores how alike two palettes are, in [0, 1]. Identical palettes
// score 1.0; complementary hue with inverted lightness and opposite
// temperature scores near 0.
func Similarity(a, b Palette) float64 {
	if len(a.Swatches) > 0 && len(b.Swatches) > 0 {
		if sim, ok := oklabSimilarity(a.Swatches, b.Swatches); ok {
			return sim
		}
	}
	return metricSimilarity(a.Metrics, b.Metrics)
}

// metricSimilarity blends per-dimension similarities of the derived metrics.
func metricSimilarity(a, b Metrics) float64 {
	hueSim := 1 - CircularHueDistance(a.AvgHue, b.AvgHue)/180
	satSim := 1 - math.Abs(a.AvgSaturation-b.AvgSaturation)
	lightSim := 1 - math.Abs(a.AvgLightness-b.AvgLightness)
	tempSim := 1 - math.Abs(a.ColorTemperature-b.ColorTemperature)/2

	score := hueWeight*hueSim +
		saturationWeight*satSim +
		lightnessWeight*lightSim +
		temperatureWeight*tempSim
	return clamp01(score)
}

// oklabMaxDistance normalizes swatch distances; it is the approximate OKLAB
// distance between black and white, the largest gap two wallpaper swatches
// can plausibly have.
const oklabMaxDistance = 1.0

// oklabSimilarity compares palettes swatch-by-swatch in OKLAB space. Returns
// ok=false when no swatch pair could be parsed.
func oklabSimilarity(a, b []string) (float64, bool) {
	n := min(len(a), len(b))
	var total float64
	var pairs int
	for i := range n {
		la, okA := hexToOKLAB(a[i])
		lb, okB := hexToOKLAB(b[i])
		if !okA || !okB {
			continue
		}
		dist := math.Sqrt(
			(la.l-lb.l)*(la.l-lb.l) +
				(la.a-lb.a)*(la.a-lb.a) +
				(la.b-lb.b)*(la.b-lb.b))
		sim := 1 - math.Min(1, dist/oklabMaxDistance)
		total += sim
		pairs++
	}
	if pairs == 0 {
		return 0, false
	}
	return clamp01(total / float64(pairs)), true
}

type oklab struct {
	l, a, b float64
}

// hexToOKLAB converts a hex color to OKLAB coordinates.
func hexToOKLAB(hexColor string) (oklab, bool) {
	ri, gi, bi, err := hexToRGB(hexColor)
	if err != nil {
		return oklab{}, false
	}
	r := srgbToLinear(float64(ri) / 255.0)
	g := srgbToLinear(float64(gi) / 255.0)
	b := srgbToLinear(float64(bi) / 255.0)

	// Linear sRGB to LMS cone response, then the OKLAB nonlinearity.
	l := 0.4122214708*r + 0.5363325363*g + 0.0514459929*b
	m := 0.2119034982*r + 0.6806995451*g + 0.1073969566*b
	s := 0.0883024619*r + 0.2817188376*g + 0.6299787005*b

	lc := math.Cbrt(l)
	mc := math.Cbrt(m)
	sc := math.Cbrt(s)

	return oklab{
		l: 0.2104542553*lc + 0.7936177850*mc - 0.0040720468*sc,
		a: 1.9779984951*lc - 2.4285922050*mc + 0.4505937099*sc,
		b: 0.0259040371*lc + 0.7827717662*mc - 0.8086757660*sc,
	}, true
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}
