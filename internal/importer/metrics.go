package importer

// Metrics receives import progress counters. NopMetrics satisfies it for
// library use; the Prometheus-backed implementation lives in
// internal/metrics.
type Metrics interface {
	EntityCreated(kind string)
	RowSkipped(sheet string)
	ReferenceDeferred()
	ReferenceUnresolved()
	AssetMissing()
}

type nopMetrics struct{}

func (nopMetrics) EntityCreated(string) {}
func (nopMetrics) RowSkipped(string)    {}
func (nopMetrics) ReferenceDeferred()   {}
func (nopMetrics) ReferenceUnresolved() {}
func (nopMetrics) AssetMissing()        {}

// NopMetrics discards all counters.
func NopMetrics() Metrics { return nopMetrics{} }
