package config

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/packing-defects/internal/segment"
)

// Color is one range bound. In YAML it is either a three-element integer
// sequence in the configured channel order or a "#rrggbb" string.
type Color struct {
	Channels segment.Triple
	hex      bool
}

// RGB returns a Color from integer channels in R, G, B order.
func RGB(r, g, b uint8) Color {
	return Color{Channels: segment.Triple{r, g, b}}
}

// UnmarshalYAML accepts [c0, c1, c2] or "#rrggbb".
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		hc, err := colorful.Hex(s)
		if err != nil {
			return fmt.Errorf("line %d: invalid hex colour %q: %w", node.Line, s, err)
		}
		r, g, b := hc.RGB255()
		*c = Color{Channels: segment.Triple{r, g, b}, hex: true}
		return nil
	case yaml.SequenceNode:
		var vals []int
		if err := node.Decode(&vals); err != nil {
			return err
		}
		if len(vals) != 3 {
			return fmt.Errorf("line %d: colour needs 3 channels, got %d", node.Line, len(vals))
		}
		var t segment.Triple
		for i, v := range vals {
			if v < 0 || v > 255 {
				return fmt.Errorf("line %d: channel value %d out of range 0-255", node.Line, v)
			}
			t[i] = uint8(v)
		}
		*c = Color{Channels: t}
		return nil
	}
	return fmt.Errorf("line %d: colour must be a sequence or a hex string", node.Line)
}

// MarshalYAML writes hex colours back as hex and triples as sequences.
func (c Color) MarshalYAML() (interface{}, error) {
	if c.hex {
		return fmt.Sprintf("#%02x%02x%02x", c.Channels[0], c.Channels[1], c.Channels[2]), nil
	}
	return []int{int(c.Channels[0]), int(c.Channels[1]), int(c.Channels[2])}, nil
}

func (c Color) rgb(bgr bool) segment.Triple {
	if bgr && !c.hex {
		return c.Channels.Swapped()
	}
	return c.Channels
}
