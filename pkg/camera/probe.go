package camera

import "gocv.io/x/gocv"

// DeviceInfo describes a capture device that opened successfully.
type DeviceInfo struct {
	ID     int     `json:"id"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
	Works  bool    `json:"works"` // a frame could be read
}

// Probe tries device indices 0..max-1 and reports the ones that open.
func Probe(max int) []DeviceInfo {
	var found []DeviceInfo
	for id := 0; id < max; id++ {
		vc, err := gocv.OpenVideoCapture(id)
		if err != nil {
			continue
		}
		if !vc.IsOpened() {
			vc.Close()
			continue
		}

		info := DeviceInfo{
			ID:     id,
			Width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
			Height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
			FPS:    vc.Get(gocv.VideoCaptureFPS),
		}
		mat := gocv.NewMat()
		info.Works = vc.Read(&mat) && !mat.Empty()
		mat.Close()
		vc.Close()

		found = append(found, info)
	}
	return found
}
