package imagen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"imagestudio/internal/domain"
)

const maxDetail = 2048

// shapeMatcher recognises one known layout of a prediction. It returns the
// base64 payload and true, or declines.
type shapeMatcher struct {
	name  string
	match func(prediction any) (string, bool)
}

// predictionShapes are tried in order; the first match wins.
var predictionShapes = []shapeMatcher{
	{name: "bytesBase64Encoded", match: stringField("bytesBase64Encoded")},
	{name: "imageBytes", match: stringField("imageBytes")},
	{name: "image.bytesBase64Encoded", match: nestedStringField("image", "bytesBase64Encoded")},
	{name: "string", match: func(prediction any) (string, bool) {
		s, ok := prediction.(string)
		return s, ok && s != ""
	}},
}

// Image is a generated image as returned by a Generator. Shape names the
// response layout it was extracted from, when applicable.
type Image struct {
	Data     []byte
	MIMEType string
	Shape    string
}

// ExtractImage locates and decodes the first prediction's image.
func ExtractImage(body map[string]any) (*Image, error) {
	encoded, shape, mime, err := locate(body)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, &domain.Error{
			Kind:    domain.KindDecode,
			Message: fmt.Sprintf("Failed to decode or save generated image: %v", err),
			Cause:   err,
		}
	}
	if mime == "" {
		mime = "image/png"
	}
	return &Image{Data: data, MIMEType: mime, Shape: shape}, nil
}

func locate(body map[string]any) (encoded, shape, mime string, err error) {
	preds, _ := body["predictions"].([]any)
	if len(preds) == 0 {
		return "", "", "", shapeError(body)
	}
	first := preds[0]
	for _, m := range predictionShapes {
		if s, ok := m.match(first); ok {
			if obj, isObj := first.(map[string]any); isObj {
				mime, _ = obj["mimeType"].(string)
			}
			return s, m.name, mime, nil
		}
	}
	return "", "", "", shapeError(body)
}

func shapeError(body map[string]any) error {
	return &domain.Error{
		Kind:    domain.KindResponseShape,
		Message: "Failed to parse expected image data from API response.",
		Detail:  describe(body),
	}
}

func stringField(key string) func(any) (string, bool) {
	return func(prediction any) (string, bool) {
		obj, ok := prediction.(map[string]any)
		if !ok {
			return "", false
		}
		s, ok := obj[key].(string)
		return s, ok && s != ""
	}
}

func nestedStringField(outer, inner string) func(any) (string, bool) {
	return func(prediction any) (string, bool) {
		obj, ok := prediction.(map[string]any)
		if !ok {
			return "", false
		}
		return stringField(inner)(obj[outer])
	}
}

// describe renders body for diagnostics, eliding long strings such as
// partial image payloads.
func describe(body map[string]any) string {
	raw, err := json.Marshal(elide(body))
	if err != nil {
		return fmt.Sprintf("%v", body)
	}
	return truncate(string(raw), maxDetail)
}

func elide(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = elide(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = elide(val)
		}
		return out
	case string:
		if len(t) > 128 {
			return fmt.Sprintf("%s...(%d bytes)", t[:64], len(t))
		}
		return t
	default:
		return v
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
