package gomcu

// ChallengeResponse computes the reply code for a connection challenge.
// Intermediates are signed so subtraction wraps as two's complement before
// the 7 bit mask is applied.
func ChallengeResponse(c [4]byte) [4]byte {
	c0, c1, c2, c3 := int(c[0]), int(c[1]), int(c[2]), int(c[3])
	return [4]byte{
		byte((c0 + (c1 ^ 0x0A) - c3) & 0x7F),
		byte(((c2 >> 4) ^ (c0 + c3)) & 0x7F),
		byte(((c3 - (c2 << 2)) ^ (c0 | c1)) & 0x7F),
		byte(((c1 - c2) + (0xF0 ^ (c3 << 4))) & 0x7F),
	}
}
