package surface

import (
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regular     *truetype.Font
	regularOnce sync.Once
)

func regularFont() *truetype.Font {
	regularOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err == nil {
			regular = f
		}
	})
	return regular
}

// fontCache keeps one face per point size. Faces carry glyph caches and are
// not safe for concurrent use, so every surface owns its cache.
type fontCache struct {
	faces map[int]font.Face
}

func newFontCache() *fontCache {
	return &fontCache{faces: make(map[int]font.Face)}
}

func (c *fontCache) face(size float64) font.Face {
	f := regularFont()
	if f == nil {
		return nil
	}
	key := int(math.Round(size))
	if key < 1 {
		key = 1
	}
	if face, ok := c.faces[key]; ok {
		return face
	}
	face := truetype.NewFace(f, &truetype.Options{Size: float64(key)})
	c.faces[key] = face
	return face
}
