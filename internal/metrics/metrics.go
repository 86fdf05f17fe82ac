// Package metrics exposes prometheus counters for the crawl pipeline and an
// optional HTTP endpoint to scrape them during long runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// RequestsTotal counts every HTTP attempt, including retries.
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laborfaq_requests_total",
		Help: "Total number of HTTP requests sent, retries included.",
	})
	// RequestsSucceeded counts attempts that returned a usable response.
	RequestsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laborfaq_requests_succeeded_total",
		Help: "Total number of successful HTTP requests.",
	})
	// RequestsFailed counts attempts that errored or returned a bad status.
	RequestsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laborfaq_requests_failed_total",
		Help: "Total number of failed HTTP requests.",
	})
	// RecordsCrawled counts completed records per source.
	RecordsCrawled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laborfaq_records_crawled_total",
		Help: "Total number of FAQ records completed per source.",
	}, []string{"source"})
	// FilesUploaded counts plaintext files pushed to the document store.
	FilesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laborfaq_files_uploaded_total",
		Help: "Total number of plaintext files uploaded.",
	})
)

// Serve starts a scrape endpoint on addr in a background goroutine. The
// crawl itself is single-threaded; the endpoint only reads counters.
func Serve(addr string, logger *zap.Logger) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics endpoint stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("metrics endpoint listening", zap.String("addr", addr))
}
