package augment

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/image/draw"

	"vis4d/internal/backend"
	"vis4d/internal/config"
	"vis4d/internal/dataset"
)

// Options configures a Transformer.
type Options struct {
	FlipProb float64
	ScaleMin float64
	ScaleMax float64
	Training bool
	// Seed drives parameter sampling. Zero seeds from the clock.
	Seed uint64
}

// Transformer prepares frames. It owns a random source and is not safe for
// concurrent use.
type Transformer struct {
	backend  backend.Backend
	flipProb float64
	scaleMin float64
	scaleMax float64
	training bool
	rng      *rand.Rand
}

// New returns a transformer reading images from b.
func New(b backend.Backend, opts Options) (*Transformer, error) {
	if b == nil {
		return nil, errors.New("image backend is required")
	}
	if opts.FlipProb < 0 || opts.FlipProb > 1 {
		return nil, fmt.Errorf("flip probability must be within [0, 1], got %v", opts.FlipProb)
	}
	if opts.ScaleMin == 0 && opts.ScaleMax == 0 {
		opts.ScaleMin, opts.ScaleMax = 1, 1
	}
	if opts.ScaleMin <= 0 || opts.ScaleMax < opts.ScaleMin {
		return nil, fmt.Errorf("invalid scale range [%v, %v]", opts.ScaleMin, opts.ScaleMax)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Transformer{
		backend:  b,
		flipProb: opts.FlipProb,
		scaleMin: opts.ScaleMin,
		scaleMax: opts.ScaleMax,
		training: opts.Training,
		rng:      rand.New(rand.NewPCG(seed, ^seed)),
	}, nil
}

// FromConfig builds a transformer from the [augment] and [loader] sections.
func FromConfig(b backend.Backend, cfg *config.Config) (*Transformer, error) {
	return New(b, Options{
		FlipProb: cfg.Augment.FlipProb,
		ScaleMin: cfg.Augment.ScaleMin,
		ScaleMax: cfg.Augment.ScaleMax,
		Training: cfg.Loader.Training,
		Seed:     cfg.Loader.Seed,
	})
}

// Params draws geometric parameters. Outside training it returns the identity.
func (t *Transformer) Params() Params {
	if !t.training {
		return Params{Scale: 1}
	}
	p := Params{Scale: t.scaleMin}
	if t.scaleMax > t.scaleMin {
		p.Scale += t.rng.Float64() * (t.scaleMax - t.scaleMin)
	}
	p.Flip = t.flipProb > 0 && t.rng.Float64() < t.flipProb
	return p
}

// Apply prepares frame. A nil params draws new parameters; the parameters
// used are returned. Load and decode failures are returned as errors.
func (t *Transformer) Apply(frame dataset.Frame, params *Params) (*Sample, *Params, error) {
	if params == nil {
		p := t.Params()
		params = &p
	}
	data, err := t.backend.Get(frame.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", frame.Name, err)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", frame.Name, err)
	}

	bounds := src.Bounds()
	width := max(1, int(math.Round(float64(bounds.Dx())*params.Scale)))
	height := max(1, int(math.Round(float64(bounds.Dy())*params.Scale)))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	}

	sx := float64(width) / float64(bounds.Dx())
	sy := float64(height) / float64(bounds.Dy())
	sample := &Sample{
		Frame:  frame,
		Image:  toTensor(dst, params.Flip),
		Params: *params,
	}
	for _, label := range frame.Labels {
		if label.Box2D == nil {
			continue
		}
		box := dataset.Box2D{
			X1: label.Box2D.X1 * sx,
			Y1: label.Box2D.Y1 * sy,
			X2: label.Box2D.X2 * sx,
			Y2: label.Box2D.Y2 * sy,
		}
		if params.Flip {
			box.X1, box.X2 = float64(width)-box.X2, float64(width)-box.X1
		}
		sample.Boxes = append(sample.Boxes, box)
		sample.Categories = append(sample.Categories, label.Category)
	}
	return sample, params, nil
}

func toTensor(img *image.RGBA, flip bool) Tensor {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := Tensor{Channels: 3, Height: h, Width: w, Data: make([]float32, 3*h*w)}
	plane := h * w
	for y := range h {
		row := img.Pix[y*img.Stride:]
		for x := range w {
			srcX := x
			if flip {
				srcX = w - 1 - x
			}
			px := row[srcX*4:]
			i := y*w + x
			out.Data[i] = float32(px[0]) / 255
			out.Data[plane+i] = float32(px[1]) / 255
			out.Data[2*plane+i] = float32(px[2]) / 255
		}
	}
	return out
}
