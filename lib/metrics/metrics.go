package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons used as the reason label of FramesDropped.
const (
	ReasonGeometry    = "geometry"
	ReasonFormat      = "format"
	ReasonBuffer      = "buffer"
	ReasonAllocation  = "allocation"
	ReasonUpload      = "upload"
	ReasonUnsupported = "unsupported_codec"
)

var (
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "happlay_movie_frames_received_total",
		Help: "Total number of frames delivered by the decoder",
	}, []string{"name"})
	FramesUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "happlay_movie_frames_uploaded_total",
		Help: "Total number of frames written to the movie texture",
	}, []string{"name"})
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "happlay_movie_frames_dropped_total",
		Help: "Total number of frames dropped before reaching the texture",
	}, []string{"name", "reason"})
	FramesDrawn = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "happlay_movie_frames_drawn_total",
		Help: "Total number of draw calls issued for the movie",
	}, []string{"name"})
	TextureAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "happlay_movie_texture_allocations_total",
		Help: "Total number of backing texture allocations",
	}, []string{"name"})
	PlaybackFramerate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "happlay_movie_playback_fps",
		Help: "Decode callback rate at the last sample boundary",
	}, []string{"name"})
)

type MovieMetrics struct {
	name               string
	FramesReceived     prometheus.Counter
	FramesUploaded     prometheus.Counter
	FramesDrawn        prometheus.Counter
	TextureAllocations prometheus.Counter
	PlaybackFramerate  prometheus.Gauge
}

func NewMovieMetrics(name string) MovieMetrics {
	m := MovieMetrics{
		name:               name,
		FramesReceived:     FramesReceived.WithLabelValues(name),
		FramesUploaded:     FramesUploaded.WithLabelValues(name),
		FramesDrawn:        FramesDrawn.WithLabelValues(name),
		TextureAllocations: TextureAllocations.WithLabelValues(name),
		PlaybackFramerate:  PlaybackFramerate.WithLabelValues(name),
	}
	m.FramesReceived.Add(0)
	m.FramesUploaded.Add(0)
	m.FramesDrawn.Add(0)
	m.TextureAllocations.Add(0)
	return m
}

func (m MovieMetrics) Dropped(reason string) {
	FramesDropped.WithLabelValues(m.name, reason).Inc()
}

// Forget removes the series of a closed movie.
func (m MovieMetrics) Forget() {
	FramesReceived.DeleteLabelValues(m.name)
	FramesUploaded.DeleteLabelValues(m.name)
	FramesDrawn.DeleteLabelValues(m.name)
	TextureAllocations.DeleteLabelValues(m.name)
	PlaybackFramerate.DeleteLabelValues(m.name)
	FramesDropped.DeletePartialMatch(prometheus.Labels{"name": m.name})
}

// Handler should usually be mounted at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
