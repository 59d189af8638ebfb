// Package camera opens webcams and video files through OpenCV and exposes
// them as a vision.Source.
package camera

import "fmt"

// Config selects and sizes the capture device.
type Config struct {
	Device    int    `json:"device"`     // OpenCV device index
	VideoPath string `json:"video_path"` // file input; overrides Device when set
	Loop      bool   `json:"loop"`       // restart a video file at its end

	Width     int `json:"width"`
	Height    int `json:"height"`
	Framerate int `json:"framerate"`
}

// DefaultConfig returns 720p at 30 fps on the first webcam.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     1280,
		Height:    720,
		Framerate: 30,
	}
}

// Label names the input for logs and frame sources.
func (c Config) Label() string {
	if c.VideoPath != "" {
		return "file:" + c.VideoPath
	}
	return fmt.Sprintf("camera:%d", c.Device)
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.VideoPath == "" && c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Width < 160 || c.Width > 3840 {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > 2160 {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}

	return errors
}
