package sigmux

import (
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
)

// collector exposes a registry's dispatch counters. All values come from
// the same lock-free atomics the dispatch path maintains, so scraping
// never contends with signal delivery.
type collector struct {
	reg           *Registry
	delivered     *prometheus.Desc
	subscriptions *prometheus.Desc
	wakeDrops     *prometheus.Desc
}

// Collector returns a prometheus.Collector for this registry. The caller
// registers it on a Registerer of their choosing; the library does not own
// an HTTP endpoint.
func (r *Registry) Collector() prometheus.Collector {
	return &collector{
		reg: r,
		delivered: prometheus.NewDesc(
			"sigmux_signals_delivered_total",
			"Signal deliveries dispatched, by signal.",
			[]string{"signal", "number"}, nil,
		),
		subscriptions: prometheus.NewDesc(
			"sigmux_subscriptions",
			"Active subscriptions, by signal.",
			[]string{"signal", "number"}, nil,
		),
		wakeDrops: prometheus.NewDesc(
			"sigmux_wake_drops_total",
			"Wake bytes dropped against full notification pipes.",
			nil, nil,
		),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.delivered
	ch <- c.subscriptions
	ch <- c.wakeDrops
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	var drops uint64
	seen := make(map[*PipeWriter]struct{})

	for n := 1; n < arenaSize; n++ {
		snap := c.reg.arena[n].Load()
		count := c.reg.delivered[n].Load()
		if snap == nil && count == 0 {
			continue
		}
		name := syscall.Signal(n).String()
		num := strconv.Itoa(n)
		ch <- prometheus.MustNewConstMetric(c.delivered, prometheus.CounterValue, float64(count), name, num)
		if snap != nil {
			ch <- prometheus.MustNewConstMetric(c.subscriptions, prometheus.GaugeValue, float64(len(snap.slots)), name, num)
			for i := range snap.slots {
				if w := snap.slots[i].act.pipe; w != nil {
					if _, dup := seen[w]; !dup {
						seen[w] = struct{}{}
						drops += w.Drops()
					}
				}
			}
		}
	}
	ch <- prometheus.MustNewConstMetric(c.wakeDrops, prometheus.CounterValue, float64(drops))
}
