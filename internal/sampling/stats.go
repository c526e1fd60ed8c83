package sampling

import (
	"github.com/montanaflynn/stats"
)

// Stats summarizes video lengths in a VideoIndex.
type Stats struct {
	Records    int     `json:"records"`
	Videos     int     `json:"videos"`
	Unassigned int     `json:"unassigned"`
	MeanFrames float64 `json:"mean_frames"`
	Median     float64 `json:"median_frames"`
	P90        float64 `json:"p90_frames"`
	MaxFrames  int     `json:"max_frames"`
	MinFrames  int     `json:"min_frames"`
}

// Stats computes frame-count statistics across videos.
func (v *VideoIndex) Stats() (Stats, error) {
	out := Stats{Records: v.Len(), Videos: len(v.order)}
	lengths := make(stats.Float64Data, 0, len(v.order))
	assigned := 0
	for _, video := range v.order {
		n := len(v.positions[video])
		assigned += n
		lengths = append(lengths, float64(n))
	}
	out.Unassigned = out.Records - assigned
	if len(lengths) == 0 {
		return out, nil
	}

	var err error
	if out.MeanFrames, err = lengths.Mean(); err != nil {
		return Stats{}, err
	}
	if out.Median, err = lengths.Median(); err != nil {
		return Stats{}, err
	}
	if out.P90, err = lengths.Percentile(90); err != nil {
		return Stats{}, err
	}
	maxFrames, err := lengths.Max()
	if err != nil {
		return Stats{}, err
	}
	minFrames, err := lengths.Min()
	if err != nil {
		return Stats{}, err
	}
	out.MaxFrames = int(maxFrames)
	out.MinFrames = int(minFrames)
	return out, nil
}
