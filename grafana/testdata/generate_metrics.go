// Package testdata serves sample sesiond metrics for building Grafana
// dashboards without running real document generation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fyrsmithlabs/sesiond/internal/generator"
	"github.com/fyrsmithlabs/sesiond/internal/schema"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	reg := prometheus.NewRegistry()
	m, err := generator.NewMetrics(reg)
	if err != nil {
		log.Fatal(err)
	}

	generateSampleData(m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go generateContinuousData(ctx, m)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'sesiond-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func generateSampleData(m *generator.Metrics) {
	for i := 0; i < 200; i++ {
		simulateRequest(m)
	}
}

func generateContinuousData(ctx context.Context, m *generator.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for n := rand.Intn(4); n > 0; n-- {
				simulateRequest(m)
			}
		}
	}
}

// simulateRequest records one generation with a realistic outcome mix:
// most succeed, some fail validation, a few fail rendering.
func simulateRequest(m *generator.Metrics) {
	switch r := rand.Float64(); {
	case r < 0.15:
		m.DocumentsTotal.WithLabelValues(generator.ResultClientError).Inc()
		kind := schema.KindSession
		if rand.Float64() > 0.5 {
			kind = schema.KindClass
		}
		m.ValidationFailuresTotal.WithLabelValues(string(kind)).Inc()
	case r < 0.18:
		m.DocumentsTotal.WithLabelValues(generator.ResultServerError).Inc()
	default:
		if rand.Float64() > 0.4 {
			m.CacheHitsTotal.Inc()
		} else {
			m.CacheMissesTotal.Inc()
		}
		m.RenderDuration.Observe(0.01 + rand.Float64()*0.3)
		m.DocumentSize.Observe(float64(20<<10 + rand.Intn(400<<10)))
		m.DocumentsTotal.WithLabelValues(generator.ResultSuccess).Inc()
	}
}
