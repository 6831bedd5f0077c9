// Package frame provides the receiver side of the UART image protocol.
package frame

// A producer (usually an FPGA or MCU pipeline) sends one frame per transfer
// over a byte-oriented serial link:
//
//	[2] preamble     0xAA 0x55
//	[4] payload size little-endian uint32
//	[1] format code  see Format
//	[1] width
//	[1] height
//	[N] payload      row-major, no stride
//
// There is no checksum, retransmission or flow control. The receiver
// resynchronizes on the preamble, validates the declared size against the
// format and dimensions, and reads exactly the payload before decoding it.
//
// Producer: camera pipeline
// Consumer: host receiver
