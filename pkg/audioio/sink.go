package audioio

import (
	"context"
	"io"
)

// Sink plays PCM16 chunks on an output device. Write fails until Start;
// Stop may be called repeatedly and a closed sink cannot be restarted.
type Sink interface {
	Start(ctx context.Context) error
	Stop() error

	// Write queues a chunk, converting it to the sink's format. It may
	// block while the device catches up.
	Write(ctx context.Context, chunk AudioChunk) error

	// Flush returns once everything written has been heard.
	Flush(ctx context.Context) error

	// Clear drops queued audio, cutting off a cue mid-sentence.
	Clear() error

	Config() Config
	Name() string
	io.Closer
}

// SinkStats counts what a sink has played.
type SinkStats struct {
	Backend         string `json:"backend"`
	Running         bool   `json:"running"`
	ChunksWritten   int64  `json:"chunks_written"`
	SamplesWritten  int64  `json:"samples_written"`
	BufferedSamples int64  `json:"buffered_samples"`
	Underruns       int64  `json:"underruns"`
}

// SinkWithStats is a Sink that reports SinkStats.
type SinkWithStats interface {
	Sink
	Stats() SinkStats
}
