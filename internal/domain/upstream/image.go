package upstream

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strings"

	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

// Image is a decoded, content-sniffed image ready to be embedded in an upstream call.
type Image struct {
	Data     []byte
	MIMEType string
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// Extension returns a file extension matching the MIME type.
func (i Image) Extension() string {
	switch i.MIMEType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}

var supportedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
	"image/heic": {},
}

// DecodeImage accepts raw base64 or a base64 data URL. Malformed encodings are
// input errors; well-formed payloads that are not a supported image are
// unsupported media. maxBytes <= 0 disables the size check.
func DecodeImage(encoded string, maxBytes int) (Image, error) {
	payload := strings.TrimSpace(encoded)
	if payload == "" {
		return Image{}, apperrors.Wrap(CodeInvalidInput, "image data is empty", nil)
	}
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return Image{}, apperrors.Wrap(CodeInvalidInput, "image data URL must be base64 encoded", nil)
		}
		payload = payload[comma+1:]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, payload)

	data, err := decodeBase64(payload)
	if err != nil {
		return Image{}, apperrors.Wrap(CodeInvalidInput, "image data is not valid base64", err)
	}
	if len(data) == 0 {
		return Image{}, apperrors.Wrap(CodeInvalidInput, "image data is empty", nil)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return Image{}, apperrors.Wrap(CodeInvalidInput, "image is too large", nil)
	}

	mime := sniffImageType(data)
	if _, ok := supportedImageTypes[mime]; !ok {
		return Image{}, apperrors.Wrap(CodeUnsupportedMedia, MsgUnsupportedMedia, nil)
	}
	return Image{Data: data, MIMEType: mime}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

var heicBrands = [][]byte{[]byte("heic"), []byte("heix"), []byte("mif1"), []byte("msf1")}

func sniffImageType(data []byte) string {
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		for _, brand := range heicBrands {
			if bytes.Equal(data[8:12], brand) {
				return "image/heic"
			}
		}
	}
	mime := http.DetectContentType(data)
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	return mime
}
