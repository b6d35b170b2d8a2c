package sysprop

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sysprop"

// Metrics 汇总属性读写与等待的统计指标
//
// nil *Metrics 的所有方法都是空操作。
type Metrics struct {
	reads          *prometheus.CounterVec
	waits          *prometheus.CounterVec
	waitDuration   *prometheus.HistogramVec
	writes         *prometheus.CounterVec
	foreachSkipped prometheus.Counter
}

// NewMetrics 创建指标并注册到 reg，reg 为 nil 时使用 prometheus.DefaultRegisterer
//
// 指标名固定，同一个 reg 只能调用一次，重复注册会 panic。需要多个 Client 时共享同一个 *Metrics。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		reads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reads_total",
				Help:      "Total number of property reads by result",
			},
			[]string{"result"},
		),
		waits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "waits_total",
				Help:      "Total number of native waits by kind and result",
			},
			[]string{"kind", "result"},
		),
		waitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wait_duration_seconds",
				Help:      "Time spent blocked in native waits",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"kind"},
		),
		writes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "writes_total",
				Help:      "Total number of property writes by result",
			},
			[]string{"result"},
		),
		foreachSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "foreach_skipped_total",
				Help:      "Properties skipped during iteration because the store handed back a malformed entry",
			},
		),
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

func (m *Metrics) observeRead(err error) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(resultLabel(err)).Inc()
}

// observeWait 记录一次原生等待，kind 为 "global" 或 "property"
func (m *Metrics) observeWait(kind string, started time.Time, ok bool) {
	if m == nil {
		return
	}
	result := "changed"
	if !ok {
		result = "failed"
	}
	m.waits.WithLabelValues(kind, result).Inc()
	m.waitDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeWrite(err error) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) skipped() {
	if m == nil {
		return
	}
	m.foreachSkipped.Inc()
}
