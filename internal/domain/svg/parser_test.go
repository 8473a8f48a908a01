package svg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSVGFromSVGFence(t *testing.T) {
	response := "Here is my attempt:\n```svg\n<svg viewBox=\"0 0 100 100\"><circle r=\"40\"/></svg>\n```\nHope you like it."
	got, err := ExtractSVG(response)
	require.NoError(t, err)
	assert.Equal(t, `<svg viewBox="0 0 100 100"><circle r="40"/></svg>`, got)
}

func TestExtractSVGFromXMLFence(t *testing.T) {
	response := "```xml\n<svg xmlns=\"http://www.w3.org/2000/svg\">\n<rect width=\"10\" height=\"10\"/>\n</svg>\n```"
	got, err := ExtractSVG(response)
	require.NoError(t, err)
	assert.Contains(t, got, "<svg xmlns=")
	assert.Contains(t, got, "</svg>")
}

func TestExtractSVGFromGenericFence(t *testing.T) {
	response := "```\n<svg><path d=\"M0 0\"/></svg>\n```"
	got, err := ExtractSVG(response)
	require.NoError(t, err)
	assert.Equal(t, `<svg><path d="M0 0"/></svg>`, got)
}

func TestExtractSVGBareMarkup(t *testing.T) {
	response := "Sure! <svg height=\"4\"><g/></svg> There you go."
	got, err := ExtractSVG(response)
	require.NoError(t, err)
	assert.Equal(t, `<svg height="4"><g/></svg>`, got)
}

func TestExtractSVGFenceWithoutMarkupFallsThrough(t *testing.T) {
	// A code fence holding prose must not shadow real markup further down.
	response := "```\njust some notes\n```\nFinal answer: <svg><circle r=\"1\"/></svg>"
	got, err := ExtractSVG(response)
	require.NoError(t, err)
	assert.Equal(t, `<svg><circle r="1"/></svg>`, got)
}

func TestExtractSVGMultiline(t *testing.T) {
	response := "<svg viewBox=\"0 0 512 512\">\n  <defs>\n    <linearGradient id=\"sky\"/>\n  </defs>\n  <rect fill=\"url(#sky)\"/>\n</svg>"
	got, err := ExtractSVG(response)
	require.NoError(t, err)
	assert.Contains(t, got, "linearGradient")
}

func TestExtractSVGNoMarkup(t *testing.T) {
	_, err := ExtractSVG("I cannot draw that, sorry.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SVG markup")
}

func TestExtractSVGEmptyResponse(t *testing.T) {
	_, err := ExtractSVG("")
	require.Error(t, err)
}
