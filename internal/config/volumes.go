package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingDivisor = errors.New("missing divisor")
	ErrInvalidDivisor = errors.New("invalid divisor")
)

// Divisor holds the raw configured decay divisor. It is validated per volume
// by Value so that one broken entry does not hide the others.
type Divisor struct {
	raw string
	set bool
}

// NewDivisor builds a Divisor from its textual form.
func NewDivisor(raw string) Divisor {
	return Divisor{raw: raw, set: true}
}

func (d *Divisor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		d.raw, d.set = "", true
		return nil
	}
	if value.Tag == "!!null" {
		*d = Divisor{}
		return nil
	}
	d.raw = value.Value
	d.set = true
	return nil
}

// Value returns the divisor as a positive, finite number.
func (d Divisor) Value() (float64, error) {
	if !d.set {
		return 0, ErrMissingDivisor
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(d.raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: not a number", ErrInvalidDivisor, d.raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w %q: must be a positive finite number", ErrInvalidDivisor, d.raw)
	}
	return v, nil
}

func (d Divisor) String() string { return d.raw }

// Volumes keeps configuration order. It accepts either a mapping
// (volume: divisor) or a sequence of {name, divisor} entries.
type Volumes []VolumeConfig

func (v *Volumes) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		out := make(Volumes, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			vc := VolumeConfig{Name: key.Value}
			if err := val.Decode(&vc.Divisor); err != nil {
				return fmt.Errorf("volume %q: %w", key.Value, err)
			}
			out = append(out, vc)
		}
		*v = out
		return nil

	case yaml.SequenceNode:
		var list []VolumeConfig
		if err := value.Decode(&list); err != nil {
			return err
		}
		*v = list
		return nil

	default:
		return fmt.Errorf("line %d: volumes must be a mapping or a list", value.Line)
	}
}
