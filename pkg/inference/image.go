package inference

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
)

// DefaultJPEGQuality keeps captioning payloads small without visible loss.
const DefaultJPEGQuality = 85

// EncodeJPEG encodes img for a vision request.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("inference: nil image")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dataURL(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}
