// Package metrics exposes Prometheus counters for setup-data import runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"limscore/internal/importer"
)

// Recorder implements importer.Metrics on a private Prometheus registry so
// repeated runs in one process never collide on collector registration.
type Recorder struct {
	registry *prometheus.Registry

	entitiesCreated *prometheus.CounterVec
	rowsSkipped     *prometheus.CounterVec
	deferred        prometheus.Counter
	unresolved      prometheus.Counter
	assetsMissing   prometheus.Counter
	runDuration     prometheus.Gauge
}

var _ importer.Metrics = (*Recorder)(nil)

// NewRecorder builds a recorder with all import collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.entitiesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "limscore",
		Subsystem: "import",
		Name:      "entities_created_total",
		Help:      "Entities created in the repository, by kind.",
	}, []string{"kind"})
	r.rowsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "limscore",
		Subsystem: "import",
		Name:      "rows_skipped_total",
		Help:      "Data rows dropped after a recoverable problem, by sheet.",
	}, []string{"sheet"})
	r.deferred = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "limscore",
		Subsystem: "import",
		Name:      "references_deferred_total",
		Help:      "Cross-sheet references parked for the end-of-run drain.",
	})
	r.unresolved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "limscore",
		Subsystem: "import",
		Name:      "references_unresolved_total",
		Help:      "Deferred references whose target never appeared.",
	})
	r.assetsMissing = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "limscore",
		Subsystem: "import",
		Name:      "assets_missing_total",
		Help:      "Referenced workbook assets not found in the asset source.",
	})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "limscore",
		Subsystem: "import",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the last completed run.",
	})

	r.registry.MustRegister(
		r.entitiesCreated,
		r.rowsSkipped,
		r.deferred,
		r.unresolved,
		r.assetsMissing,
		r.runDuration,
	)
	return r
}

func (r *Recorder) EntityCreated(kind string) { r.entitiesCreated.WithLabelValues(kind).Inc() }
func (r *Recorder) RowSkipped(sheet string)   { r.rowsSkipped.WithLabelValues(sheet).Inc() }
func (r *Recorder) ReferenceDeferred()        { r.deferred.Inc() }
func (r *Recorder) ReferenceUnresolved()      { r.unresolved.Inc() }
func (r *Recorder) AssetMissing()             { r.assetsMissing.Inc() }

// ObserveRunDuration records the elapsed wall time of a completed run.
func (r *Recorder) ObserveRunDuration(d time.Duration) { r.runDuration.Set(d.Seconds()) }

// Registry exposes the backing registry for an exposition handler.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Summary is a gathered snapshot of the run counters, used for the
// end-of-run log line.
type Summary struct {
	EntitiesCreated map[string]uint64
	RowsSkipped     map[string]uint64
	Deferred        uint64
	Unresolved      uint64
	AssetsMissing   uint64
	RunSeconds      float64
}

// Total returns the entity count across all kinds.
func (s Summary) Total() uint64 {
	var n uint64
	for _, v := range s.EntitiesCreated {
		n += v
	}
	return n
}

// Summary gathers the registry into a Summary.
func (r *Recorder) Summary() (Summary, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		EntitiesCreated: map[string]uint64{},
		RowsSkipped:     map[string]uint64{},
	}
	for _, fam := range families {
		switch fam.GetName() {
		case "limscore_import_entities_created_total":
			for _, m := range fam.GetMetric() {
				kind := ""
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "kind" {
						kind = lp.GetValue()
					}
				}
				s.EntitiesCreated[kind] += uint64(m.GetCounter().GetValue())
			}
		case "limscore_import_rows_skipped_total":
			for _, m := range fam.GetMetric() {
				sheet := ""
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "sheet" {
						sheet = lp.GetValue()
					}
				}
				s.RowsSkipped[sheet] += uint64(m.GetCounter().GetValue())
			}
		case "limscore_import_references_deferred_total":
			for _, m := range fam.GetMetric() {
				s.Deferred += uint64(m.GetCounter().GetValue())
			}
		case "limscore_import_references_unresolved_total":
			for _, m := range fam.GetMetric() {
				s.Unresolved += uint64(m.GetCounter().GetValue())
			}
		case "limscore_import_assets_missing_total":
			for _, m := range fam.GetMetric() {
				s.AssetsMissing += uint64(m.GetCounter().GetValue())
			}
		case "limscore_import_run_duration_seconds":
			for _, m := range fam.GetMetric() {
				s.RunSeconds = m.GetGauge().GetValue()
			}
		}
	}
	return s, nil
}
