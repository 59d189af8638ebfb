package audioio

import "encoding/binary"

// decodePCM reads little-endian PCM16. A trailing odd byte is dropped.
func decodePCM(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return samples
}

// encodePCM writes samples as little-endian PCM16.
func encodePCM(samples []int16) []byte {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	return data
}

// resample converts mono samples between rates by linear interpolation,
// which is adequate for speech.
func resample(samples []int16, from, to int) []int16 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	n := len(samples) * to / from
	out := make([]int16, n)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * float64(from) / float64(to)
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		a, b := float64(samples[j]), float64(samples[j+1])
		out[i] = int16(a + (pos-float64(j))*(b-a))
	}
	return out
}

// downmix averages interleaved stereo to mono.
func downmix(samples []int16) []int16 {
	out := make([]int16, len(samples)/2)
	for i := range out {
		out[i] = int16((int32(samples[2*i]) + int32(samples[2*i+1])) / 2)
	}
	return out
}

// upmix duplicates mono into interleaved stereo.
func upmix(samples []int16) []int16 {
	out := make([]int16, 2*len(samples))
	for i, s := range samples {
		out[2*i], out[2*i+1] = s, s
	}
	return out
}
