package overlay

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce    sync.Once
	regularFont *truetype.Font
	boldFont    *truetype.Font
	fontErr     error
)

func loadFonts() error {
	fontOnce.Do(func() {
		if regularFont, fontErr = truetype.Parse(goregular.TTF); fontErr != nil {
			return
		}
		boldFont, fontErr = truetype.Parse(gobold.TTF)
	})
	return fontErr
}

// newFaces returns fresh regular and bold faces. Faces are not safe for
// concurrent use, so every layer owns its own.
func newFaces(size float64) (regular, bold font.Face, err error) {
	if err := loadFonts(); err != nil {
		return nil, nil, err
	}
	opts := &truetype.Options{Size: size, Hinting: font.HintingFull}
	return truetype.NewFace(regularFont, opts), truetype.NewFace(boldFont, opts), nil
}
