// Package port defines the contract between the hardware-agnostic framing
// layer and a hardware-specific UART driver.
//
// A Port drives one or more physical UART channels with blocking semantics.
// Every operation either completes or busy-waits on the hardware; there is
// no timeout and no cancellation. Invalid channels are programming errors
// and cause a panic with *ChannelError. Drivers backed by an OS device panic
// with *IOError when the device fails; RecoverIOError turns that back into
// an error.
//
// A Port provides no mutual exclusion. Callers targeting the same channel
// from multiple goroutines must serialize access themselves.
package port
