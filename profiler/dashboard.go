package profiler

import (
	"github.com/go-echarts/statsview"

	"github.com/e9kdbg/e9kdbg/logger"
)

// DefaultAddress is the dashboard's default listen address, used when the
// caller does not configure one explicitly.
const DefaultAddress = ":18066"

// Dashboard wraps a go-echarts/statsview runtime-stats server, gated
// behind the --profile-http flag the way the teacher gates its own
// statsview wrapper behind a "statsview" boolean flag.
type Dashboard struct {
	viewer *statsview.Viewer
	addr   string
}

// NewDashboard configures a dashboard bound to addr ("" selects
// DefaultAddress); it does not start listening until Start is called.
func NewDashboard(addr string) *Dashboard {
	if addr == "" {
		addr = DefaultAddress
	}
	return &Dashboard{
		viewer: statsview.New(statsview.WithAddr(addr)),
		addr:   addr,
	}
}

// Start launches the dashboard's HTTP server in the background. It
// returns immediately; the server runs until Stop is called or the
// process exits.
func (d *Dashboard) Start() {
	logger.Logf(logger.Allow, "profiler", "statsview dashboard listening on %s", d.addr)
	go d.viewer.Start()
}

// Stop shuts the dashboard's HTTP server down.
func (d *Dashboard) Stop() {
	d.viewer.Stop()
}
