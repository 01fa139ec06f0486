package extractor

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// RawPalette is the parsed form of a wallust cache entry before metric
// derivation.
type RawPalette struct {
	Swatches   []string
	Background string
	Foreground string
	Cursor     string
}

// ParsePalette parses a wallust cache artifact. Two shapes occur in the
// wild: a flat object mapping names to hex strings ("color0".."color15",
// "background", "foreground", "cursor"), and a nested object whose color
// values are RGB float triples in [0,1]. Both may wrap the colors under a
// "colors" key.
func ParsePalette(data []byte) (*RawPalette, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("palette cache entry is not a JSON object: %w", err)
	}

	// Unwrap a "colors" envelope, keeping top-level special fields.
	colorFields := root
	if nested, ok := root["colors"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			colorFields = inner
			for _, key := range []string{"background", "foreground", "cursor"} {
				if _, present := colorFields[key]; !present {
					if value, has := root[key]; has {
						colorFields[key] = value
					}
				}
			}
		}
	}

	palette := &RawPalette{}
	indexed := make(map[int]string)
	for key, value := range colorFields {
		hex, ok := parseColorValue(value)
		if !ok {
			continue
		}
		switch {
		case key == "background":
			palette.Background = hex
		case key == "foreground":
			palette.Foreground = hex
		case key == "cursor":
			palette.Cursor = hex
		case strings.HasPrefix(key, "color"):
			var index int
			if _, err := fmt.Sscanf(key, "color%d", &index); err == nil {
				indexed[index] = hex
			}
		}
	}

	if len(indexed) == 0 {
		return nil, fmt.Errorf("palette cache entry contains no swatch colors")
	}

	indexes := make([]int, 0, len(indexed))
	for i := range indexed {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		palette.Swatches = append(palette.Swatches, indexed[i])
	}
	return palette, nil
}

// parseColorValue accepts either a hex string or an RGB float triple.
func parseColorValue(raw json.RawMessage) (string, bool) {
	var hex string
	if err := json.Unmarshal(raw, &hex); err == nil {
		hex = strings.TrimSpace(hex)
		if strings.HasPrefix(hex, "#") && (len(hex) == 7 || len(hex) == 4) {
			return normalizeHex(hex), true
		}
		return "", false
	}

	var triple []float64
	if err := json.Unmarshal(raw, &triple); err == nil && len(triple) == 3 {
		return rgbTripleToHex(triple), true
	}
	return "", false
}

// normalizeHex expands #rgb shorthand and lowercases.
func normalizeHex(hex string) string {
	hex = strings.ToLower(hex)
	if len(hex) == 4 {
		return fmt.Sprintf("#%c%c%c%c%c%c", hex[1], hex[1], hex[2], hex[2], hex[3], hex[3])
	}
	return hex
}

// rgbTripleToHex converts [0,1] float components to a hex string. Values
// above 1 are assumed to already be 0-255.
func rgbTripleToHex(triple []float64) string {
	component := func(v float64) int {
		if v > 1.0 {
			return clampByte(int(math.Round(v)))
		}
		return clampByte(int(math.Round(v * 255)))
	}
	return fmt.Sprintf("#%02x%02x%02x",
		component(triple[0]), component(triple[1]), component(triple[2]))
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
