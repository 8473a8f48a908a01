// Package svg is the vector-graphics optimization domain: candidates are SVG
// markup, judged from rasterized renders against a style rubric.
package svg

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	svgFenceRe     = regexp.MustCompile("(?s)```(?:svg|xml)[ \t]*\n(.*?)```")
	genericFenceRe = regexp.MustCompile("(?s)```[ \t]*\n(.*?)```")
	svgTagRe       = regexp.MustCompile(`(?s)(<svg.*?</svg>)`)
)

// ExtractSVG pulls SVG markup out of a model response. Tries ```svg and
// ```xml fences first, then any fenced block containing an <svg> tag, then
// a bare <svg>...</svg> document. Fails when nothing usable is found —
// ambiguous output is a proposal failure, not a candidate.
func ExtractSVG(response string) (string, error) {
	if m := svgFenceRe.FindStringSubmatch(response); m != nil {
		code := strings.TrimSpace(m[1])
		if strings.Contains(code, "<svg") {
			return code, nil
		}
	}

	if m := genericFenceRe.FindStringSubmatch(response); m != nil {
		code := strings.TrimSpace(m[1])
		if strings.Contains(code, "<svg") {
			return code, nil
		}
	}

	if m := svgTagRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1]), nil
	}

	return "", fmt.Errorf("svg: no SVG markup found in response")
}
