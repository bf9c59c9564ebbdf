package observability

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
	Name: "scriptlint_heap_alloc_bytes",
	Help: "Bytes of live heap objects, sampled at scrape time.",
}, func() float64 {
	return float64(heapAlloc())
})

func heapAlloc() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}

// HeapAllocMB reports live heap in whole megabytes, for log lines.
func HeapAllocMB() uint64 {
	return heapAlloc() >> 20
}
