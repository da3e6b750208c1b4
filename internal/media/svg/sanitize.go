package svg

import (
	"bytes"
	"errors"
	"regexp"
)

var ErrNotSVG = errors.New("not an svg document")

var (
	scriptElement  = regexp.MustCompile(`(?is)<\s*script\b.*?(?:<\s*/\s*script\s*>|/\s*>)`)
	foreignElement = regexp.MustCompile(`(?is)<\s*foreignObject\b.*?<\s*/\s*foreignObject\s*>`)
	eventAttr      = regexp.MustCompile(`(?is)\s+on[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	scriptHref     = regexp.MustCompile(`(?is)\s+(?:xlink:)?href\s*=\s*(?:"\s*javascript:[^"]*"|'\s*javascript:[^']*')`)
)

// Sanitize strips script content, embedded HTML, inline event handlers and
// javascript: links from an SVG document.
func Sanitize(input []byte) ([]byte, error) {
	if !bytes.Contains(bytes.ToLower(input), []byte("<svg")) {
		return nil, ErrNotSVG
	}

	out := scriptElement.ReplaceAll(input, nil)
	out = foreignElement.ReplaceAll(out, nil)
	out = eventAttr.ReplaceAll(out, nil)
	out = scriptHref.ReplaceAll(out, nil)
	return out, nil
}
