package augment

import "vis4d/internal/dataset"

// Tensor is an image in channel-major (CHW) layout with values in [0, 1].
type Tensor struct {
	Channels int       `json:"channels"`
	Height   int       `json:"height"`
	Width    int       `json:"width"`
	Data     []float32 `json:"-"`
}

// At returns the value at channel c, row y, column x.
func (t Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.Height+y)*t.Width+x]
}

// Params is the geometric transform applied to every frame of a clip.
type Params struct {
	Flip  bool    `json:"flip"`
	Scale float64 `json:"scale"`
}

// Sample is a prepared frame.
type Sample struct {
	Frame      dataset.Frame   `json:"frame"`
	Image      Tensor          `json:"image"`
	Boxes      []dataset.Box2D `json:"boxes"`
	Categories []string        `json:"categories"`
	Params     Params          `json:"params"`
	Keyframe   bool            `json:"keyframe"`
}

// FrameIndex reports the frame index within the video.
func (s *Sample) FrameIndex() (int, bool) {
	return s.Frame.Index()
}

// SetKeyframe flags the sample as the key frame of its clip.
func (s *Sample) SetKeyframe(v bool) {
	s.Keyframe = v
}
