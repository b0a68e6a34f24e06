package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Render emits the registry in Prometheus text exposition format.
// Families appear in first-registration order, series within a family
// sorted by name.
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, base := range r.order {
		kind := r.kinds[base]
		if help, ok := r.help[base]; ok {
			fmt.Fprintf(&b, "# HELP %s %s\n", base, help)
		}
		fmt.Fprintf(&b, "# TYPE %s %s\n", base, kind)

		switch kind {
		case "counter":
			for _, name := range seriesOf(r.counters, base) {
				fmt.Fprintf(&b, "%s %d\n", name, r.counters[name].Value())
			}
		case "gauge":
			for _, name := range seriesOf(r.gauges, base) {
				fmt.Fprintf(&b, "%s %d\n", name, r.gauges[name].Value())
			}
		case "histogram":
			for _, name := range seriesOf(r.histograms, base) {
				r.renderHistogram(&b, base, name)
			}
		}
	}
	return b.String()
}

func (r *Registry) renderHistogram(b *strings.Builder, base, name string) {
	bounds, counts, sum, total := r.histograms[name].snapshot()
	labels := innerLabels(name)
	var cumulative uint64
	for i, bound := range bounds {
		cumulative += counts[i]
		fmt.Fprintf(b, "%s_bucket{le=\"%g\"%s} %d\n", base, bound, labels, cumulative)
	}
	fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"%s} %d\n", base, labels, total)
	fmt.Fprintf(b, "%s_sum%s %g\n", base, rewrap(labels), sum)
	fmt.Fprintf(b, "%s_count%s %d\n", base, rewrap(labels), total)
}

// seriesOf returns the sorted names in m whose base matches base.
func seriesOf[M any](m map[string]M, base string) []string {
	var out []string
	for name := range m {
		if baseName(name) == base {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// innerLabels pulls the label list out of `name{k="v"}` as `,k="v"`,
// ready to splice after a le="..." bucket label.
func innerLabels(name string) string {
	idx := strings.IndexByte(name, '{')
	if idx == -1 {
		return ""
	}
	inner := name[idx+1 : len(name)-1]
	if inner == "" {
		return ""
	}
	return "," + inner
}

// rewrap turns `,k="v"` back into `{k="v"}`.
func rewrap(labels string) string {
	if labels == "" {
		return ""
	}
	return "{" + labels[1:] + "}"
}

// Handler serves the rendered registry.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.Write([]byte(r.Render()))
	})
}

// statusWriter captures the status code for the scrape log line.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// wrap guards the ops endpoint: panics become a 500 instead of killing
// the process, every request gets an OTel span, and scrapes log at Debug
// since they recur every few seconds.
func wrap(h http.Handler) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic recovered", "path", req.URL.Path, "error", fmt.Sprintf("%v", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			slog.Debug("scrape",
				"method", req.Method,
				"path", req.URL.Path,
				"status", sw.status,
				"duration", time.Since(start),
			)
		}()
		h.ServeHTTP(sw, req)
	})
	return otelhttp.NewHandler(inner, "metrics")
}

// Serve blocks serving /metrics (plus a trivial liveness root) on port.
func (r *Registry) Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return http.ListenAndServe(fmt.Sprintf(":%d", port), wrap(mux))
}

// ServeAsync runs Serve in a goroutine and logs a failure to start.
func (r *Registry) ServeAsync(port int) {
	go func() {
		if err := r.Serve(port); err != nil {
			slog.Error("metrics server stopped", "port", port, "error", err)
		}
	}()
}
