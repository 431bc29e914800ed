// Package uart provides packet framing over a UART port.
//
// Each packet on the wire is a 4-byte length in the machine's native byte
// order followed by the payload, optionally transformed by the channel's
// Transform. There is no checksum, preamble or acknowledgment: the link is
// assumed lossless, and hardware parity/framing detection is surfaced to the
// receiver but never corrected.
//
// Sender and receiver must share byte order; it is not negotiated.
package uart
