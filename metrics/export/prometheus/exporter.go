package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authbridge"
	"github.com/MrEthical07/authbridge/metrics/export/internaldefs"
)

const healthTimeout = 2 * time.Second

// Source is the part of *authbridge.Engine the exporter reads.
type Source interface {
	MetricsSnapshot() authbridge.MetricsSnapshot
	AuditDropped() uint64
	Health(ctx context.Context) authbridge.HealthReport
}

type Exporter struct {
	source Source
}

// NewPrometheusExporter reads from engine on every scrape.
func NewPrometheusExporter(engine *authbridge.Engine) *Exporter {
	return &Exporter{source: engine}
}

func NewPrometheusExporterFromSource(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves Render. The scrape context bounds the health probes.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render(r.Context())))
	})
}

// Render returns the current exposition text, or "" when the engine has
// metrics disabled.
func (p *Exporter) Render(ctx context.Context) string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeSample(&b, def.Name, def.Help, "counter", snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		writeHistogram(&b, def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)))
	}
	writeSample(&b, "authbridge_audit_dropped_total", "Audit events dropped because the buffer was full.", "counter", dropped)

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	health := p.source.Health(ctx)
	writeSample(&b, "authbridge_item_store_up", "Whether the item store answered a ping.", "gauge", up(health.ItemStore))
	writeSample(&b, "authbridge_session_store_up", "Whether the session store answered a ping.", "gauge", up(health.SessionStore))

	return b.String()
}

func up(err error) uint64 {
	if err != nil {
		return 0
	}
	return 1
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name, help, kind string, value uint64) {
	writeHeader(b, name, help, kind)
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString(`_bucket{le="`)
		b.WriteString(le)
		b.WriteString(`"} `)
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	b.WriteByte('\n')

	// Snapshots carry bucket counts only.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, `\`, `\\`)
	return strings.ReplaceAll(help, "\n", `\n`)
}
