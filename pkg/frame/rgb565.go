package frame

// RGB565 narrows an 8-bit RGB triple by dropping the low 3, 2 and 3 bits
// of red, green and blue.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// ExpandRGB565 widens an RGB565 sample by shifting each channel back up.
// Low bits are left zero rather than replicated.
func ExpandRGB565(v uint16) (r, g, b uint8) {
	r = uint8((v>>11)&0x1f) << 3
	g = uint8((v>>5)&0x3f) << 2
	b = uint8(v&0x1f) << 3
	return
}
