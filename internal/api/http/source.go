package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

var (
	errUnknownCharset = errors.New("cannot determine source charset")
	errInvalidUTF8    = errors.New("source declared as utf-8 is not valid utf-8")
)

func isText(body []byte) bool {
	for m := mimetype.Detect(body); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// decodeSource returns body as UTF-8. A charset declared in contentType
// wins; otherwise non-UTF-8 bodies are transcoded from the detected charset.
func decodeSource(body []byte, contentType string) (string, error) {
	label := declaredCharset(contentType)
	switch label {
	case "utf-8", "utf8":
		if !utf8.Valid(body) {
			return "", errInvalidUTF8
		}
		return string(body), nil
	case "":
		if utf8.Valid(body) {
			return string(body), nil
		}
		label = detectCharset(body)
		if label == "" {
			return "", errUnknownCharset
		}
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %q", errUnknownCharset, label)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("transcode %s source: %w", label, err)
	}
	return string(out), nil
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

func detectCharset(body []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || result == nil {
		return ""
	}
	return strings.ToLower(result.Charset)
}
