package recipe

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT draws the recipe as a left-to-right chain: input, one node per
// step, output. The result can be rendered with [RenderSVG].
func ToDOT(r Recipe) string {
	var buf bytes.Buffer
	buf.WriteString("digraph recipe {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	fmt.Fprintf(&buf, "  label=%q;\n", fmt.Sprintf("%s (seed %d)", r.Name, r.Seed))
	buf.WriteString("\n")

	buf.WriteString("  input [shape=ellipse, fillcolor=lightgrey];\n")
	for i, s := range r.Steps {
		fmt.Fprintf(&buf, "  step%d [label=%q, fillcolor=%s];\n", i+1, stepLabel(i, s), stepColor(s))
	}
	buf.WriteString("  output [shape=ellipse, fillcolor=lightgrey];\n")

	buf.WriteString("\n")
	prev := "input"
	for i := range r.Steps {
		next := fmt.Sprintf("step%d", i+1)
		fmt.Fprintf(&buf, "  %s -> %s;\n", prev, next)
		prev = next
	}
	fmt.Fprintf(&buf, "  %s -> output;\n", prev)

	buf.WriteString("}\n")
	return buf.String()
}

func stepLabel(i int, s Step) string {
	switch s.Op {
	case OpShuffle:
		return fmt.Sprintf("%d. shuffle\nchannel %d\nblock %d", i+1, s.Channel, s.BlockSize)
	case OpStreak:
		return fmt.Sprintf("%d. streak\naxis %d, block %d\np=%g m=%g", i+1, s.Axis, s.BlockSize, s.PercentCorrupted, s.MarginCorrupted)
	}
	return fmt.Sprintf("%d. %s", i+1, s.Op)
}

var channelColors = []string{"\"#f4cccc\"", "\"#d9ead3\"", "\"#cfe2f3\"", "\"#eeeeee\""}

func stepColor(s Step) string {
	if s.Op == OpShuffle && s.Channel < len(channelColors) {
		return channelColors[s.Channel]
	}
	return "\"#fff2cc\""
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
