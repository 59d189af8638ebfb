package audioio

import (
	"math"
	"time"
)

// AudioChunk represents a chunk of audio data.
type AudioChunk struct {
	// Samples contains PCM16 audio samples, interleaved when stereo.
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the raw little-endian bytes of the audio chunk.
func (c *AudioChunk) Bytes() []byte {
	return encodePCM(c.Samples)
}

// FromBytes populates the chunk from raw PCM16 bytes.
func (c *AudioChunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = decodePCM(data)
}

// Duration returns the playback duration of this chunk.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate*c.Channels) * float64(time.Second))
}

// Convert returns the chunk at the given rate and channel count.
func Convert(c AudioChunk, sampleRate, channels int) AudioChunk {
	samples := c.Samples
	if c.Channels == 2 && channels == 1 {
		samples = downmix(samples)
	}
	if c.SampleRate != sampleRate && c.SampleRate > 0 {
		samples = resample(samples, c.SampleRate, sampleRate)
	}
	if c.Channels == 1 && channels == 2 {
		samples = upmix(samples)
	}
	return AudioChunk{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// Tone synthesizes a mono sine tone. The first and last 5ms are ramped to
// avoid clicks.
func Tone(frequency float64, duration time.Duration, amplitude float64, sampleRate int) AudioChunk {
	n := int(float64(sampleRate) * duration.Seconds())
	ramp := sampleRate / 200
	samples := make([]int16, n)
	for i := range samples {
		gain := amplitude
		if i < ramp {
			gain *= float64(i) / float64(ramp)
		} else if n-i < ramp {
			gain *= float64(n-i) / float64(ramp)
		}
		samples[i] = int16(gain * 32767 * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate)))
	}
	return AudioChunk{Samples: samples, SampleRate: sampleRate, Channels: 1}
}
