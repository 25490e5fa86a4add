package tts

import "encoding/binary"

// WAVDuration reads a RIFF/WAVE header and returns the audio length in
// seconds, or 0 if the data is not a readable WAV file. Used when the plain
// synthesis endpoint returns audio without timing metadata.
func WAVDuration(wav []byte) float64 {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return 0
	}

	var byteRate uint32
	var dataSize uint32

	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := binary.LittleEndian.Uint32(wav[pos+4 : pos+8])
		body := pos + 8

		switch id {
		case "fmt ":
			if body+12 <= len(wav) {
				byteRate = binary.LittleEndian.Uint32(wav[body+8 : body+12])
			}
		case "data":
			dataSize = size
		}

		pos = body + int(size)
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if byteRate == 0 || dataSize == 0 {
		return 0
	}
	return float64(dataSize) / float64(byteRate)
}
