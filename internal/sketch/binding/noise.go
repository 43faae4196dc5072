package binding

import (
	"math"
	"math/rand"
)

const (
	noiseOctaves = 4
	noiseFalloff = 0.5
)

// Noise is a seedable 3D Perlin generator returning values in [0, 1]
type Noise struct {
	perm [512]int
}

// NewNoise builds a permutation table from seed
func NewNoise(seed int64) *Noise {
	n := &Noise{}
	n.Seed(seed)
	return n
}

// Seed rebuilds the permutation table
func (n *Noise) Seed(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	p := rng.Perm(256)
	for i := 0; i < 512; i++ {
		n.perm[i] = p[i&255]
	}
}

// At sums octaves of gradient noise at (x, y, z)
func (n *Noise) At(x, y, z float64) float64 {
	var sum, amp, total float64 = 0, 0.5, 0
	freq := 1.0
	for o := 0; o < noiseOctaves; o++ {
		sum += amp * n.sample(x*freq, y*freq, z*freq)
		total += amp
		amp *= noiseFalloff
		freq *= 2
	}
	v := (sum/total + 1) / 2
	return math.Max(0, math.Min(1, v))
}

func (n *Noise) sample(x, y, z float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	zi := int(math.Floor(z)) & 255
	x -= math.Floor(x)
	y -= math.Floor(y)
	z -= math.Floor(z)
	u, v, w := fade(x), fade(y), fade(z)

	p := n.perm
	a := p[xi] + yi
	aa := p[a] + zi
	ab := p[a+1] + zi
	b := p[xi+1] + yi
	ba := p[b] + zi
	bb := p[b+1] + zi

	return lerp(w,
		lerp(v,
			lerp(u, grad(p[aa], x, y, z), grad(p[ba], x-1, y, z)),
			lerp(u, grad(p[ab], x, y-1, z), grad(p[bb], x-1, y-1, z))),
		lerp(v,
			lerp(u, grad(p[aa+1], x, y, z-1), grad(p[ba+1], x-1, y, z-1)),
			lerp(u, grad(p[ab+1], x, y-1, z-1), grad(p[bb+1], x-1, y-1, z-1))))
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

func grad(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := y
	if h < 8 {
		u = x
	}
	v := z
	if h < 4 {
		v = y
	} else if h == 12 || h == 14 {
		v = x
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
