package sampling

import "fmt"

// VideoIndex maps videos to their dataset positions in dataset order.
type VideoIndex struct {
	order     []string
	positions map[string][]int
	videoOf   []string
	inVideo   []bool
	// offset of each position within its video
	offsets []int
}

// BuildVideoIndex scans n records. videoOf reports the video a record belongs
// to; records without one are left out of every video.
func BuildVideoIndex(n int, videoOf func(i int) (string, bool)) (*VideoIndex, error) {
	if n < 0 {
		return nil, fmt.Errorf("record count must be non-negative, got %d", n)
	}
	idx := &VideoIndex{
		positions: make(map[string][]int),
		videoOf:   make([]string, n),
		inVideo:   make([]bool, n),
		offsets:   make([]int, n),
	}
	for i := range n {
		video, ok := videoOf(i)
		if !ok {
			continue
		}
		if _, seen := idx.positions[video]; !seen {
			idx.order = append(idx.order, video)
		}
		idx.offsets[i] = len(idx.positions[video])
		idx.positions[video] = append(idx.positions[video], i)
		idx.videoOf[i] = video
		idx.inVideo[i] = true
	}
	return idx, nil
}

// Len reports the number of records scanned.
func (v *VideoIndex) Len() int {
	return len(v.videoOf)
}

// Videos lists video names in first-seen order.
func (v *VideoIndex) Videos() []string {
	return append([]string(nil), v.order...)
}

// Positions returns the dataset positions of video. The slice must not be
// modified.
func (v *VideoIndex) Positions(video string) ([]int, bool) {
	positions, ok := v.positions[video]
	return positions, ok
}

// VideoOf reports the video of dataset position i.
func (v *VideoIndex) VideoOf(i int) (string, bool) {
	if i < 0 || i >= len(v.videoOf) || !v.inVideo[i] {
		return "", false
	}
	return v.videoOf[i], true
}

func (v *VideoIndex) locate(video string, key int) ([]int, int, error) {
	positions, ok := v.positions[video]
	if !ok {
		return nil, 0, fmt.Errorf("unknown video %q", video)
	}
	got, ok := v.VideoOf(key)
	if !ok || got != video {
		return nil, 0, fmt.Errorf("position %d is not part of video %q", key, video)
	}
	return positions, v.offsets[key], nil
}
