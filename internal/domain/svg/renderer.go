package svg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ashita-ai/kaizen/internal/model"
)

// ResvgRenderer rasterizes SVG markup to PNG by shelling out to the resvg
// binary. resvg reads the document from stdin ("-") and writes the PNG to
// stdout ("-c"); no temp files are involved.
type ResvgRenderer struct {
	binary string
	width  int
	height int
}

// NewResvgRenderer creates a renderer. An empty binary defaults to "resvg"
// resolved from PATH.
func NewResvgRenderer(binary string, width, height int) *ResvgRenderer {
	if binary == "" {
		binary = "resvg"
	}
	return &ResvgRenderer{binary: binary, width: width, height: height}
}

// Render rasterizes one candidate.
func (r *ResvgRenderer) Render(ctx context.Context, c *model.Candidate) (*model.Rendered, error) {
	args := []string{
		"--width", strconv.Itoa(r.width),
		"--height", strconv.Itoa(r.height),
		"--background", "white",
		"-", "-c",
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdin = strings.NewReader(c.Content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, fmt.Errorf("svg: resvg render: %w: %s", err, msg)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("svg: resvg produced no output")
	}

	return &model.Rendered{Data: stdout.Bytes(), MediaType: "image/png"}, nil
}
