package transport

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Page is a fetched and decoded document
type Page struct {
	URL         string
	Status      int
	ContentType string
	Charset     string
	Body        string
}

// markupTypes are the declared media types accepted for page content
var markupTypes = map[string]bool{
	"":                      true,
	"text/html":             true,
	"application/xhtml+xml": true,
	"text/plain":            true,
}

func decodePage(url string, status int, contentType string, body []byte) (*Page, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBody, url)
	}
	if err := checkMarkup(contentType, body); err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}

	text, label, err := Decode(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return &Page{
		URL:         url,
		Status:      status,
		ContentType: contentType,
		Charset:     label,
		Body:        text,
	}, nil
}

// checkMarkup accepts bodies sniffed as html, or as text declared as markup
func checkMarkup(contentType string, body []byte) error {
	declared := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("%w: bad content type %q", ErrNotMarkup, contentType)
		}
		declared = mt
	}

	sniffed := mimetype.Detect(body)
	for m := sniffed; m != nil; m = m.Parent() {
		if m.Is("text/html") || m.Is("application/xhtml+xml") {
			return nil
		}
	}
	if sniffed.Is("text/plain") && markupTypes[declared] {
		return nil
	}
	return fmt.Errorf("%w: sniffed %s, declared %q", ErrNotMarkup, sniffed.String(), declared)
}

// Decode converts body to UTF-8. The charset comes from the content type,
// a byte order mark or a meta tag, and is otherwise guessed.
func Decode(body []byte, contentType string) (string, string, error) {
	_, label, certain := charset.DetermineEncoding(body, contentType)
	if !certain && label != "utf-8" {
		if guess := detectCharset(body); guess != "" {
			if r, err := charset.NewReaderLabel(guess, bytes.NewReader(body)); err == nil {
				return readAll(r, guess)
			}
		}
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("charset %s: %w", label, err)
	}
	return readAll(r, label)
}

func readAll(r io.Reader, label string) (string, string, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	return string(out), label, nil
}

func detectCharset(body []byte) string {
	result, err := chardet.NewHtmlDetector().DetectBest(body)
	if err != nil || result == nil || result.Confidence < 50 {
		return ""
	}
	return strings.ToLower(result.Charset)
}
