package document

// binarySampleSize is how many leading bytes are scanned for NUL, as git does.
const binarySampleSize = 8000

// isBinary reports whether data looks like binary content.
// UTF-16 and UTF-32 byte order marks are treated as text.
func isBinary(data []byte) bool {
	if len(data) >= 2 {
		if (data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF) {
			return false
		}
	}
	if len(data) >= 4 {
		if data[0] == 0x00 && data[1] == 0x00 && data[2] == 0xFE && data[3] == 0xFF {
			return false
		}
	}

	sampleSize := min(len(data), binarySampleSize)
	for i := 0; i < sampleSize; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}
