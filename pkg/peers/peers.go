// Package peers holds the fixed table of named UART configurations.
package peers

import (
	"sort"

	"github.com/robotalks/uart.go/pkg/uart"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

// Peer names.
const (
	BatteryName = "battery"
	GatewayName = "gateway"
)

var (
	battery = uart.NewConfig(port.UART1, uart.Shift(26))
	gateway = uart.NewConfig(port.UART2, nil)

	table = map[string]*uart.Config{
		BatteryName: battery,
		GatewayName: gateway,
	}
)

// Battery is the configuration of the battery peer.
func Battery() *uart.Config { return battery }

// Gateway is the configuration of the gateway peer.
func Gateway() *uart.Config { return gateway }

// Lookup finds a peer configuration by name.
func Lookup(name string) (*uart.Config, bool) {
	c, ok := table[name]
	return c, ok
}

// Names lists peer names in order.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
