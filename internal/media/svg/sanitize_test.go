package svg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	in := `<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)">` +
		`<script>alert(2)</script>` +
		`<foreignObject><body onclick='x()'>hi</body></foreignObject>` +
		`<a href="javascript:alert(3)"><circle r="4" onmouseover='y()'/></a>` +
		`<a href="https://example.com"/></svg>`

	out, err := Sanitize([]byte(in))
	require.NoError(t, err)

	s := string(out)
	assert.NotContains(t, s, "alert")
	assert.NotContains(t, s, "onload")
	assert.NotContains(t, s, "onmouseover")
	assert.NotContains(t, s, "foreignObject")
	assert.Contains(t, s, `<circle r="4"/>`)
	assert.Contains(t, s, `href="https://example.com"`)
}

func TestSanitizeRejectsNonSVG(t *testing.T) {
	_, err := Sanitize([]byte("<html></html>"))
	assert.ErrorIs(t, err, ErrNotSVG)
}
