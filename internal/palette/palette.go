// Package palette derives theming colors from uploaded images.
// Given a banner image it picks three representative colors
// (primary, secondary, highlight) biased toward vivid, bright hues.
package palette

import (
	"fmt"
	"image"
	"io"
	"math"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// maxSide caps the working resolution; larger images are downscaled
	// before sampling. Purely a performance bound.
	maxSide = 200

	// quantStep merges near-duplicate colors by rounding each channel
	// to the nearest multiple of 32.
	quantStep = 32

	// minBrightness drops dark colors (sum of quantized channels).
	minBrightness = 300

	// minChannel drops muted colors where every channel is low.
	minChannel = 80

	// minSpread drops near-gray colors (max channel - min channel).
	minSpread = 50

	// minDistance is the RGB Euclidean distance below which two
	// candidates are considered the same color.
	minDistance = 80

	// maxCandidates is how many de-duplicated candidates to keep
	// before role assignment.
	maxCandidates = 6

	// minAlpha is the opacity threshold; more transparent pixels are skipped.
	minAlpha = 128
)

// Fallback is the bright default palette used when extraction cannot
// produce three colors. Theming must never block a profile save.
var Fallback = [3]string{"#FF6B6B", "#4ECDC4", "#45B7D1"}

// candidate is a quantized color bucket with its derived scores.
type candidate struct {
	r, g, b    int
	count      int
	brightness int // r+g+b, 0-765
	saturation int // max-min, 0-255
	score      float64
}

func (c candidate) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// ExtractDominantColors decodes an image and returns its three theming
// colors as #RRGGBB hex strings. It is total: any decode or sampling
// failure yields the fallback palette, never an error.
func ExtractDominantColors(r io.Reader) [3]string {
	img, _, err := image.Decode(r)
	if err != nil {
		return Fallback
	}
	return ExtractFromImage(img)
}

// ExtractFromImage derives the three theming colors from a decoded image.
func ExtractFromImage(img image.Image) [3]string {
	if img == nil {
		return Fallback
	}

	rgba := downscale(img)
	candidates := tally(rgba)
	selected := dedupe(candidates)
	return assignRoles(selected)
}

// downscale renders the image into an RGBA buffer whose longest side is
// at most maxSide, preserving aspect ratio. Images already within the
// bound are copied at native resolution.
func downscale(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	scale := 1.0
	if w > maxSide || h > maxSide {
		scale = math.Min(float64(maxSide)/float64(w), float64(maxSide)/float64(h))
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// quantize rounds a channel value to the nearest multiple of quantStep
// (round half up), clamped to 255 so results stay two hex digits.
func quantize(v int) int {
	q := (v + quantStep/2) / quantStep * quantStep
	if q > 255 {
		q = 255
	}
	return q
}

// tally counts surviving quantized colors in insertion order, so that
// score ties resolve deterministically for identical input.
func tally(rgba *image.RGBA) []candidate {
	index := make(map[[3]int]int)
	var buckets []candidate

	bounds := rgba.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := rgba.Pix[(y-bounds.Min.Y)*rgba.Stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			off := (x - bounds.Min.X) * 4
			r, g, b, a := int(row[off]), int(row[off+1]), int(row[off+2]), int(row[off+3])

			if a < minAlpha {
				continue
			}

			qr, qg, qb := quantize(r), quantize(g), quantize(b)

			// Vividness filter: drop dark, muted, and near-gray buckets
			// so extraction favors theming-worthy colors over whatever
			// dominates numerically.
			if qr+qg+qb < minBrightness {
				continue
			}
			if qr < minChannel && qg < minChannel && qb < minChannel {
				continue
			}
			if spread(qr, qg, qb) < minSpread {
				continue
			}

			key := [3]int{qr, qg, qb}
			if i, ok := index[key]; ok {
				buckets[i].count++
				continue
			}
			index[key] = len(buckets)
			buckets = append(buckets, candidate{r: qr, g: qg, b: qb, count: 1})
		}
	}

	for i := range buckets {
		c := &buckets[i]
		c.brightness = c.r + c.g + c.b
		c.saturation = spread(c.r, c.g, c.b)
		c.score = 0.5*float64(c.count) +
			0.3*(float64(c.brightness)/765) +
			0.2*(float64(c.saturation)/255)
	}

	// Stable sort keeps insertion order on ties.
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].score > buckets[j].score
	})

	return buckets
}

// dedupe greedily selects up to maxCandidates colors, skipping any
// within minDistance of an already selected one.
func dedupe(ranked []candidate) []candidate {
	var selected []candidate
	for _, c := range ranked {
		if len(selected) >= maxCandidates {
			break
		}
		similar := false
		for _, s := range selected {
			if distance(c, s) < minDistance {
				similar = true
				break
			}
		}
		if !similar {
			selected = append(selected, c)
		}
	}
	return selected
}

// assignRoles maps the selected candidates onto [primary, secondary,
// highlight]. With fewer than three candidates, available ones are
// reused; with none, the fallback palette applies. The exact fallback
// ladder is load-bearing for downstream theming stability.
func assignRoles(selected []candidate) [3]string {
	switch {
	case len(selected) >= 3:
		primary := selected[0].hex()
		secondary := selected[1].hex()

		// Highlight: most saturated of the selected set, unless it
		// collides with primary or secondary.
		bySaturation := make([]candidate, len(selected))
		copy(bySaturation, selected)
		sort.SliceStable(bySaturation, func(i, j int) bool {
			return bySaturation[i].saturation > bySaturation[j].saturation
		})
		highlight := bySaturation[0].hex()
		if highlight == primary || highlight == secondary {
			highlight = selected[2].hex()
		}
		return [3]string{primary, secondary, highlight}

	case len(selected) == 2:
		return [3]string{selected[0].hex(), selected[1].hex(), selected[0].hex()}

	case len(selected) == 1:
		only := selected[0].hex()
		return [3]string{only, only, only}

	default:
		return Fallback
	}
}

func spread(r, g, b int) int {
	return maxInt(r, g, b) - minInt(r, g, b)
}

func distance(a, b candidate) float64 {
	dr := float64(a.r - b.r)
	dg := float64(a.g - b.g)
	db := float64(a.b - b.b)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func maxInt(vs ...int) int {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minInt(vs ...int) int {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
