package sampling

import (
	"fmt"
	"strings"

	"vis4d/internal/config"
)

// Strategy selects how reference frames are drawn.
type Strategy int

const (
	Uniform Strategy = iota
	Sequential
)

func (s Strategy) String() string {
	switch s {
	case Uniform:
		return "uniform"
	case Sequential:
		return "sequential"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "uniform":
		return Uniform, nil
	case "sequential":
		return Sequential, nil
	default:
		return 0, fmt.Errorf("unsupported reference sampling type %q", value)
	}
}

// FrameOrder selects how a clip is ordered before it is returned.
type FrameOrder int

const (
	KeyFirst FrameOrder = iota
	Temporal
)

func (o FrameOrder) String() string {
	switch o {
	case KeyFirst:
		return "key_first"
	case Temporal:
		return "temporal"
	default:
		return fmt.Sprintf("FrameOrder(%d)", int(o))
	}
}

// ParseFrameOrder maps a configuration value to a FrameOrder.
func ParseFrameOrder(value string) (FrameOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "key_first":
		return KeyFirst, nil
	case "temporal":
		return Temporal, nil
	default:
		return 0, fmt.Errorf("unsupported frame order %q", value)
	}
}

// Config describes reference sampling.
type Config struct {
	Strategy   Strategy
	Scope      int
	NumRefImgs int
	FrameOrder FrameOrder
}

// Validate rejects configurations that can never be satisfied.
func (c Config) Validate() error {
	switch c.Strategy {
	case Uniform, Sequential:
	default:
		return fmt.Errorf("unsupported reference sampling type %s", c.Strategy)
	}
	switch c.FrameOrder {
	case KeyFirst, Temporal:
	default:
		return fmt.Errorf("unsupported frame order %s", c.FrameOrder)
	}
	if c.Scope < 0 {
		return fmt.Errorf("sampling scope must be non-negative, got %d", c.Scope)
	}
	if c.NumRefImgs < 0 {
		return fmt.Errorf("num_ref_imgs must be non-negative, got %d", c.NumRefImgs)
	}
	if c.Strategy == Uniform && c.NumRefImgs > 2*c.Scope {
		return fmt.Errorf("num_ref_imgs %d exceeds the uniform window of %d frames", c.NumRefImgs, 2*c.Scope)
	}
	return nil
}

// FromConfig converts the [sampling] section into a validated Config.
func FromConfig(section config.Sampling) (Config, error) {
	strategy, err := ParseStrategy(section.Type)
	if err != nil {
		return Config{}, err
	}
	order, err := ParseFrameOrder(section.FrameOrder)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Strategy:   strategy,
		Scope:      section.Scope,
		NumRefImgs: section.NumRefImgs,
		FrameOrder: order,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
