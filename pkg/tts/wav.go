package tts

import (
	"encoding/binary"
	"fmt"
)

// decodeWAV extracts PCM16 samples from a RIFF/WAVE buffer. Chunk sizes
// larger than the buffer are clamped, since synthesizers writing to a pipe
// cannot seek back to patch them.
func decodeWAV(data []byte) ([]byte, AudioFormat, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, AudioFormat{}, fmt.Errorf("%w: not a WAVE file", ErrBadAudio)
	}

	var format AudioFormat
	haveFormat := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if size < 0 || end > len(data) {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, AudioFormat{}, fmt.Errorf("%w: short fmt chunk", ErrBadAudio)
			}
			if tag := binary.LittleEndian.Uint16(data[body:]); tag != 1 {
				return nil, AudioFormat{}, fmt.Errorf("%w: unsupported format tag %d", ErrBadAudio, tag)
			}
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			format.BitDepth = int(binary.LittleEndian.Uint16(data[body+14:]))
			if format.BitDepth != 16 {
				return nil, AudioFormat{}, fmt.Errorf("%w: %d-bit audio", ErrBadAudio, format.BitDepth)
			}
			haveFormat = true
		case "data":
			if !haveFormat {
				return nil, AudioFormat{}, fmt.Errorf("%w: data before fmt", ErrBadAudio)
			}
			pcm := data[body:end]
			return pcm[:len(pcm)&^1], format, nil
		}

		pos = end + (size & 1)
	}
	return nil, AudioFormat{}, fmt.Errorf("%w: no data chunk", ErrBadAudio)
}
