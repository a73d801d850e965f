package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	svcErr "github.com/oggyb/fall-in/internal/errors"
)

var allowedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

const jpegQuality = 80

// AllowedFile reports whether filename has an accepted image extension.
func AllowedFile(filename string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(filename))]
}

// EncodePhoto decodes an uploaded image, shrinks it to fit within maxEdge
// pixels and returns it as an inline JPEG data URL.
func EncodePhoto(r io.Reader, filename string, maxEdge int) (string, error) {
	if !AllowedFile(filename) {
		return "", svcErr.Validation("photo must be a png, jpg, jpeg or gif file")
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", svcErr.Validation("could not read image")
	}

	b := img.Bounds()
	if maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
