// Package testdata provides utilities for generating sample metrics data
// to test Grafana dashboards without using real production data.
package main

import (
	"context"
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
)

// Metrics for testing dashboards. Names, labels and buckets mirror the
// instruments the daemon exports so dashboard queries work unchanged.
var (
	// Reflection pipeline metrics
	reflectionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflection_runs_total",
			Help: "Total number of reflection runs",
		},
		[]string{"status"},
	)
	reflectionRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reflection_run_duration_seconds",
			Help:    "Time spent on full reflection runs",
			Buckets: []float64{0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
		},
	)
	reflectionStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reflection_stage_duration_seconds",
			Help:    "Time spent on individual pipeline stages",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"stage"},
	)
	reflectionStageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflection_stage_errors_total",
			Help: "Total number of stage failures",
		},
		[]string{"stage"},
	)

	// HTTP server metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflectd_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reflectd_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
		},
		[]string{"method", "endpoint"},
	)
	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reflectd_http_response_size_bytes",
			Help:    "HTTP response size",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"method", "endpoint"},
	)
	httpActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reflectd_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)
)

var stages = []string{"draft", "critique", "revision"}

func init() {
	// Register all metrics
	prometheus.MustRegister(
		// Reflection
		reflectionRuns,
		reflectionRunDuration,
		reflectionStageDuration,
		reflectionStageErrors,
		// HTTP
		httpRequestsTotal,
		httpRequestDuration,
		httpResponseSize,
		httpActiveRequests,
	)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9091"
	}

	// Generate initial sample data
	generateSampleData()

	// Start background goroutine to continuously generate data
	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx)

	// Serve metrics
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'reflectd-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func generateSampleData() {
	// Generate completed reflection runs
	for i := 0; i < 60; i++ {
		simulateRun()
	}

	// Generate HTTP traffic across the real routes
	endpoints := []string{"/health", "/api/v1/reflect", "/api/v1/status"}
	statuses := []string{"200", "400", "500", "502"}
	for i := 0; i < 200; i++ {
		endpoint := randomChoice(endpoints)
		method := "GET"
		if endpoint == "/api/v1/reflect" {
			method = "POST"
		}
		httpRequestsTotal.WithLabelValues(method, endpoint, randomChoice(statuses)).Inc()
		httpRequestDuration.WithLabelValues(method, endpoint).Observe(rand.Float64() * 0.5)
		httpResponseSize.WithLabelValues(method, endpoint).Observe(float64(rand.Intn(10000) + 100))
	}
	httpActiveRequests.Set(float64(rand.Intn(4)))
}

// simulateRun emits the metrics one pipeline run would produce: a stage
// duration per completed stage, the run counter, and the run duration as
// the sum of the stages. Roughly one run in twelve fails partway through.
func simulateRun() {
	total := 0.0
	failAt := -1
	if rand.Float64() < 0.08 {
		failAt = rand.Intn(len(stages))
	}

	for i, stage := range stages {
		d := 0.5 + rand.Float64()*8.0
		total += d
		reflectionStageDuration.WithLabelValues(stage).Observe(d)
		if i == failAt {
			reflectionStageErrors.WithLabelValues(stage).Inc()
			reflectionRuns.WithLabelValues("error").Inc()
			reflectionRunDuration.Observe(total)
			return
		}
	}

	reflectionRuns.WithLabelValues("success").Inc()
	reflectionRunDuration.Observe(total)
}

func generateContinuousData(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	endpoints := []string{"/health", "/api/v1/reflect", "/api/v1/status"}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Add some random activity
			if rand.Float64() > 0.4 {
				simulateRun()
			}
			for i := 0; i < rand.Intn(5)+1; i++ {
				endpoint := randomChoice(endpoints)
				method := "GET"
				status := "200"
				if endpoint == "/api/v1/reflect" {
					method = "POST"
					status = randomChoice([]string{"200", "200", "200", "400", "502"})
				}
				httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
				httpRequestDuration.WithLabelValues(method, endpoint).Observe(rand.Float64() * 0.5)
				httpResponseSize.WithLabelValues(method, endpoint).Observe(float64(rand.Intn(10000) + 100))
			}
			httpActiveRequests.Set(float64(rand.Intn(4)))
		}
	}
}

func randomChoice(choices []string) string {
	return choices[rand.Intn(len(choices))]
}
