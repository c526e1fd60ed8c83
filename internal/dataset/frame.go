package dataset

// Box2D is an axis-aligned box in pixel coordinates.
type Box2D struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b Box2D) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Box2D) Height() float64 { return b.Y2 - b.Y1 }

// Label is one annotated instance.
type Label struct {
	ID         string         `json:"id"`
	Category   string         `json:"category"`
	Box2D      *Box2D         `json:"box2d,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ImageSize is the stored image resolution.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Frame is one sample record.
type Frame struct {
	Name       string         `json:"name"`
	URL        string         `json:"url,omitempty"`
	VideoName  string         `json:"videoName,omitempty"`
	FrameIndex *int           `json:"frameIndex,omitempty"`
	Size       *ImageSize     `json:"size,omitempty"`
	Labels     []Label        `json:"labels,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Index returns the frame index within its video, if known.
func (f Frame) Index() (int, bool) {
	if f.FrameIndex == nil {
		return 0, false
	}
	return *f.FrameIndex, true
}

// VideoOf reports the video a frame belongs to.
func VideoOf(f Frame) (string, bool) {
	return f.VideoName, f.VideoName != ""
}
