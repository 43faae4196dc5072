package harness

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const statsWindow = 240

// Stats summarizes a harness for health endpoints
type Stats struct {
	State           State   `json:"state"`
	FrameCount      int     `json:"frame_count"`
	FramesDrawn     int64   `json:"frames_drawn"`
	Mounts          int64   `json:"mounts"`
	Failures        int64   `json:"failures"`
	MeanFrameMs     float64 `json:"mean_frame_ms"`
	P95FrameMs      float64 `json:"p95_frame_ms"`
	TargetFrameRate float64 `json:"target_frame_rate"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
}

// frameStats keeps a sliding window of draw durations in milliseconds
type frameStats struct {
	mounts   int64
	failures int64
	drawn    int64
	window   []float64
	next     int
}

func newFrameStats() frameStats {
	return frameStats{window: make([]float64, 0, statsWindow)}
}

func (f *frameStats) record(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	f.drawn++
	if len(f.window) < statsWindow {
		f.window = append(f.window, ms)
		return
	}
	f.window[f.next] = ms
	f.next = (f.next + 1) % statsWindow
}

func (f *frameStats) summary() Stats {
	s := Stats{
		FramesDrawn: f.drawn,
		Mounts:      f.mounts,
		Failures:    f.failures,
	}
	if len(f.window) == 0 {
		return s
	}

	sorted := append([]float64(nil), f.window...)
	sort.Float64s(sorted)
	s.MeanFrameMs = stat.Mean(sorted, nil)
	s.P95FrameMs = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return s
}
