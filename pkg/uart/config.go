package uart

import (
	"fmt"

	"github.com/robotalks/uart.go/pkg/uart/port"
)

// Config binds a channel to a transform. It is immutable.
type Config struct {
	channel   port.Channel
	transform Transform
}

// NewConfig creates a Config. A nil transform means Identity.
func NewConfig(ch port.Channel, t Transform) *Config {
	if t == nil {
		t = Identity
	}
	return &Config{channel: ch, transform: t}
}

// Channel returns the hardware channel.
func (c *Config) Channel() port.Channel {
	return c.channel
}

// Transform returns the payload transform, never nil.
func (c *Config) Transform() Transform {
	return c.transform
}

// HasTransform reports whether payloads are transformed.
func (c *Config) HasTransform() bool {
	return c.transform != Identity
}

// String implements fmt.Stringer.
func (c *Config) String() string {
	if c.HasTransform() {
		return fmt.Sprintf("%s (transformed)", c.channel)
	}
	return c.channel.String()
}

func mustConfig(c *Config) *Config {
	if c == nil {
		panic("uart: nil Config")
	}
	return c
}
