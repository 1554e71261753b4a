package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationAttemptsTotal đếm từng lần gọi model theo loại nội dung
	// Labels: kind (quiz/flashcards/transcript), outcome (success/upstream_error/extraction_failed/validation_failed)
	GenerationAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epodcast_generation_attempts_total",
			Help: "Total number of text generation attempts by artifact kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// GenerationDuration thời gian cho cả vòng retry (giây)
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "epodcast_generation_duration_seconds",
			Help:    "Duration of a full generation run in seconds by artifact kind",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	// SynthesisTierTotal kết quả từng tầng tổng hợp giọng nói
	// Labels: tier (neural/vits/procedural), outcome (success/error/skipped)
	SynthesisTierTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epodcast_synthesis_tier_total",
			Help: "Total number of speech synthesis tier invocations by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	// AudioMigrationFilesTotal kết quả đổi tên file audio
	// Labels: result (success/failed/skipped)
	AudioMigrationFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epodcast_audio_migration_files_total",
			Help: "Total number of audio files processed by the filename migration",
		},
		[]string{"result"},
	)
)

func RecordAttempt(kind, outcome string) {
	GenerationAttemptsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordGenerationDuration(kind string, seconds float64) {
	GenerationDuration.WithLabelValues(kind).Observe(seconds)
}

func RecordTier(tier, outcome string) {
	SynthesisTierTotal.WithLabelValues(tier, outcome).Inc()
}

func RecordMigration(result string) {
	AudioMigrationFilesTotal.WithLabelValues(result).Inc()
}
