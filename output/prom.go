/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package output

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sabouaram/scopeagent/internal/metric"
)

// Prom is a fourth Output sink: rather than shipping lines to a remote
// collector, it keeps the latest value of every named gauge/counter and
// serves them on a local scrape endpoint. Send is a no-op (there is no
// textual line to scrape); SendEvent is where the work happens.
type Prom struct {
	reg    *prometheus.Registry
	mu     sync.Mutex
	gauges map[string]*prometheus.GaugeVec
	srv    *http.Server
}

// NewProm starts a scrape listener at addr (e.g. "127.0.0.1:9102") serving
// "/metrics".
func NewProm(addr string) (*Prom, error) {
	reg := prometheus.NewRegistry()
	p := &Prom{reg: reg, gauges: make(map[string]*prometheus.GaugeVec)}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	p.srv = &http.Server{Addr: addr, Handler: mux}

	ln, err := newListener(addr)
	if err != nil {
		return nil, err
	}
	go func() { _ = p.srv.Serve(ln) }()
	return p, nil
}

func (p *Prom) Send([]byte) error { return nil }

// SendEvent implements metric.Output: it registers a GaugeVec for e.Name on
// first sight (labeled by every field name carried on the event) and sets
// the current value. Counters (Sem == Delta) are modeled as gauges too,
// since the shim already computes deltas itself; Prometheus clients are
// free to rate() a gauge the same as a counter for this purpose.
func (p *Prom) SendEvent(e metric.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	gv, ok := p.gauges[e.Name]
	if !ok {
		labelNames := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			labelNames[i] = f.Name
		}
		gv = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: promName(e.Name),
			Help: "scopeagent metric " + e.Name,
		}, labelNames)
		if err := p.reg.Register(gv); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				gv = already.ExistingCollector.(*prometheus.GaugeVec)
			} else {
				return err
			}
		}
		p.gauges[e.Name] = gv
	}

	labelValues := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		labelValues[i] = f.Value
	}
	gv.WithLabelValues(labelValues...).Set(float64(e.Value))
	return nil
}

// Close shuts the scrape listener down with a short grace period.
func (p *Prom) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.srv.Shutdown(ctx)
}

func promName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '.' || name[i] == '-' {
			out[i] = '_'
		} else {
			out[i] = name[i]
		}
	}
	return "scopeagent_" + string(out)
}
