package loops

import (
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultSeed is the seed used when no color generator is configured.
const DefaultSeed uint64 = 42

// ColorGenerator supplies loop colors as CSS hex strings.
type ColorGenerator interface {
	Next() string
}

// RandomColors draws bright, saturated colors from a seeded PCG source.
// Two generators with the same seed yield the same sequence.
//
// RandomColors is not safe for concurrent use.
type RandomColors struct {
	rng *rand.Rand
}

// NewRandomColors returns a generator seeded with seed.
func NewRandomColors(seed uint64) *RandomColors {
	return &RandomColors{rng: rand.New(rand.NewPCG(seed, seed^0xdeadbeef))}
}

// Next returns the next color.
func (c *RandomColors) Next() string {
	h := c.rng.Float64() * 360
	s := 0.55 + c.rng.Float64()*0.3
	v := 0.8 + c.rng.Float64()*0.15
	return colorful.Hsv(h, s, v).Hex()
}

// Palette cycles through a fixed list of colors.
type Palette struct {
	colors []string
	next   int
}

// NewPalette returns a generator cycling through colors. An empty palette
// yields white.
func NewPalette(colors ...string) *Palette {
	return &Palette{colors: colors}
}

// Next returns the next palette entry.
func (p *Palette) Next() string {
	if len(p.colors) == 0 {
		return "#ffffff"
	}
	c := p.colors[p.next%len(p.colors)]
	p.next++
	return c
}
