package classifier

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

// Detection is the outcome of running every model against one image.
type Detection struct {
	HazardType  models.HazardType
	Confidence  float64
	Predictions map[models.HazardType]float64
}

// imageStats are the summary statistics fed to the models, in a fixed order:
// grayscale mean/std/var/max/min, per-RGB-channel mean/std/var, and the mean
// absolute row/column differences as crude edge measures.
type imageStats struct {
	values []float64
}

// DetectImage scores an uploaded image with every loaded model and returns
// the hazard with the highest probability. The caller decides whether the
// winning confidence clears the reporting threshold.
func (r *Registry) DetectImage(data []byte) (*Detection, error) {
	stats, err := extractImageStats(data)
	if err != nil {
		return nil, err
	}

	det := &Detection{
		HazardType:  models.HazardNone,
		Predictions: make(map[models.HazardType]float64, len(r.models)),
	}
	for hazard, m := range r.models {
		_, prob := m.PredictVector(stats.vector(len(m.Features)))
		det.Predictions[hazard] = prob
		if prob > det.Confidence {
			det.Confidence = prob
			det.HazardType = hazard
		}
	}

	return det, nil
}

// vector pads or truncates the statistics to a model's feature width.
// Padding is a constant so identical uploads score identically.
func (s *imageStats) vector(width int) []float64 {
	x := make([]float64, width)
	for i := range x {
		if i < len(s.values) {
			x[i] = s.values[i]
		} else {
			x[i] = 0.5
		}
	}
	return x
}

func extractImageStats(data []byte) (*imageStats, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}

	gray := make([][]float64, h)
	var sumR, sumG, sumB float64
	var sqR, sqG, sqB float64
	var sumGray, sqGray float64
	minGray, maxGray := 1.0, 0.0
	n := float64(w * h)

	for y := 0; y < h; y++ {
		gray[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			fr := float64(cr) / 65535
			fg := float64(cg) / 65535
			fb := float64(cb) / 65535
			g := (fr + fg + fb) / 3

			gray[y][x] = g
			sumR, sumG, sumB = sumR+fr, sumG+fg, sumB+fb
			sqR, sqG, sqB = sqR+fr*fr, sqG+fg*fg, sqB+fb*fb
			sumGray += g
			sqGray += g * g
			minGray = math.Min(minGray, g)
			maxGray = math.Max(maxGray, g)
		}
	}

	meanGray := sumGray / n
	varGray := math.Max(0, sqGray/n-meanGray*meanGray)

	stats := []float64{meanGray, math.Sqrt(varGray), varGray, maxGray, minGray}
	for _, ch := range []struct{ sum, sq float64 }{{sumR, sqR}, {sumG, sqG}, {sumB, sqB}} {
		mean := ch.sum / n
		variance := math.Max(0, ch.sq/n-mean*mean)
		stats = append(stats, mean, math.Sqrt(variance), variance)
	}
	vert, horiz := edgeMeans(gray, w, h)
	stats = append(stats, vert, horiz)

	return &imageStats{values: stats}, nil
}

// edgeMeans returns the mean absolute vertical then horizontal differences.
func edgeMeans(gray [][]float64, w, h int) (float64, float64) {
	var vert, horiz float64
	if h > 1 {
		for y := 1; y < h; y++ {
			for x := 0; x < w; x++ {
				vert += math.Abs(gray[y][x] - gray[y-1][x])
			}
		}
		vert /= float64((h - 1) * w)
	}
	if w > 1 {
		for y := 0; y < h; y++ {
			for x := 1; x < w; x++ {
				horiz += math.Abs(gray[y][x] - gray[y][x-1])
			}
		}
		horiz /= float64(h * (w - 1))
	}
	return vert, horiz
}
