package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// newMetricsRegistry builds the registry served on /metrics: runtime
// collectors plus live occupancy read from the car park on every scrape.
func newMetricsRegistry(carPark CarPark) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "car_park",
			Name:      "spaces_total",
			Help:      "Total number of parking spaces.",
		}, func() float64 {
			return float64(carPark.Capacity())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "car_park",
			Name:      "spaces_available",
			Help:      "Number of vacant parking spaces.",
		}, func() float64 {
			return float64(carPark.GetStatus(context.Background()).Available)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "car_park",
			Name:      "spaces_occupied",
			Help:      "Number of occupied parking spaces.",
		}, func() float64 {
			return float64(carPark.GetStatus(context.Background()).Occupied)
		}),
	)

	return reg
}
