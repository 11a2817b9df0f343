package main

import (
	"sync"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"

	"github.com/xor-shift/xsrng/common"
)

// widest range a histogram is kept for, one bucket per value
const maxHistogramWidth = 1 << 16

type snapshot struct {
	LastBatch *common.DrawBatch `json:"lastBatch"`
	Histogram *common.Histogram `json:"histogram"`
	Deviation float64           `json:"deviation"`
}

// monitor keeps the latest batch and a histogram of every batch that shares
// its range.
type monitor struct {
	mu        sync.Mutex
	lastBatch *common.DrawBatch
	histogram *common.Histogram
}

func newMonitor() *monitor {
	return &monitor{}
}

func (m *monitor) Observe(batch common.DrawBatch) error {
	golog.Debugf("batch %d of session %d: %d values in [%d, %d)",
		batch.Order, batch.SessionID, len(batch.Values), batch.Request.Min, batch.Request.Max)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastBatch = &batch

	req := batch.Request
	if req.Max == req.Min || req.Max-req.Min > maxHistogramWidth {
		m.histogram = nil
		return nil
	}

	if m.histogram == nil || m.histogram.Min != req.Min || m.histogram.Max != req.Max {
		var err error
		if m.histogram, err = common.NewHistogram(req.Min, req.Max); err != nil {
			return err
		}
	}

	m.histogram.Add(batch.Values...)

	return nil
}

func (m *monitor) Snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := snapshot{LastBatch: m.lastBatch}

	if m.histogram != nil {
		histogram := *m.histogram
		histogram.Counts = append([]int(nil), m.histogram.Counts...)

		s.Histogram = &histogram
		s.Deviation = histogram.MaxDeviation()
	}

	return s
}

func newApp(m *monitor) *iris.Application {
	app := iris.New()

	app.Get("/test", func(ctx iris.Context) {
		_, _ = ctx.Text("OK")
	})

	app.Get("/data", func(ctx iris.Context) {
		if _, err := ctx.JSON(m.Snapshot()); err != nil {
			app.Logger().Errorf("/data error: %s", err)
		}
	})

	return app
}
