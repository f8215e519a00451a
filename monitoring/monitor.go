// Package monitoring turns a running simulation into a small web server so
// that it can be watched and paused from a browser.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/adhocsim/energy"
	"github.com/sarchlab/adhocsim/metrics"
	"github.com/sarchlab/adhocsim/monitoring/web"
	"github.com/sarchlab/adhocsim/sim/hooking"
	"github.com/sarchlab/adhocsim/sim/id"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/traffic"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	engine     timing.Engine
	registry   *metrics.Registry
	ledger     *energy.Ledger
	portNumber int
	idGen      id.IDGenerator

	flowsLock sync.Mutex
	flows     []*traffic.Flow

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		idGen: id.NewPrefixedIDGenerator("bar-"),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e timing.Engine) {
	m.engine = e
}

// RegisterRegistry registers the metrics registry to expose.
func (m *Monitor) RegisterRegistry(r *metrics.Registry) {
	m.registry = r
}

// RegisterLedger registers the energy ledger to expose.
func (m *Monitor) RegisterLedger(l *energy.Ledger) {
	m.ledger = l
}

// RegisterFlow exposes a flow and tracks its emitted packets with a progress
// bar.
func (m *Monitor) RegisterFlow(f *traffic.Flow) {
	m.flowsLock.Lock()
	m.flows = append(m.flows, f)
	m.flowsLock.Unlock()

	bar := m.CreateProgressBar(f.Name(), uint64(f.Spec().PacketCount))
	f.AcceptHook(&progressHook{bar: bar})
}

type progressHook struct {
	bar *ProgressBar
}

func (h *progressHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != traffic.HookPosPacketSent {
		return
	}

	h.bar.IncrementFinished(1)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/metrics", m.listMetrics)
	r.HandleFunc("/api/energy", m.listEnergy)
	r.HandleFunc("/api/flow/{name}", m.flowDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("monitor cannot listen on %s: %w", actualPort, err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	router := m.Router()

	go func() {
		err := http.Serve(listener, router)
		dieOnErr(err)
	}()

	return url, nil
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.Now()
	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bytes, err := json.Marshal(m.progressBars)
	m.progressBarsLock.Unlock()
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type metricRsp struct {
	Name    string  `json:"name"`
	Context string  `json:"context"`
	Kind    string  `json:"kind"`
	Count   uint64  `json:"count"`
	Sum     float64 `json:"sum"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
}

func (m *Monitor) listMetrics(w http.ResponseWriter, _ *http.Request) {
	rsp := []metricRsp{}

	if m.registry != nil {
		for _, s := range m.registry.SnapshotAll() {
			rsp = append(rsp, metricRsp{
				Name:    s.Key.Name,
				Context: s.Key.Context,
				Kind:    s.Kind.String(),
				Count:   s.Count,
				Sum:     s.Sum,
				Min:     s.Min,
				Max:     s.Max,
				Mean:    s.Mean,
			})
		}
	}

	writeJSON(w, rsp)
}

type energyRsp struct {
	Node     int     `json:"node"`
	Initial  float64 `json:"initial"`
	Residual float64 `json:"residual"`
}

func (m *Monitor) listEnergy(w http.ResponseWriter, _ *http.Request) {
	rsp := []energyRsp{}

	if m.ledger != nil {
		for _, r := range m.ledger.Records() {
			rsp = append(rsp, energyRsp{
				Node:     int(r.Node),
				Initial:  r.Initial,
				Residual: r.Residual,
			})
		}
	}

	writeJSON(w, rsp)
}

type flowRsp struct {
	Spec      traffic.FlowSpec
	State     string
	Sent      int
	Remaining int
}

func (m *Monitor) flowDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	flow := m.findFlowOr404(w, name)
	if flow == nil {
		return
	}

	rsp := &flowRsp{
		Spec:      flow.Spec(),
		State:     flow.State().String(),
		Sent:      flow.Sent(),
		Remaining: flow.Remaining(),
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(rsp)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) findFlowOr404(
	w http.ResponseWriter,
	name string,
) *traffic.Flow {
	m.flowsLock.Lock()
	defer m.flowsLock.Unlock()

	for _, f := range m.flows {
		if f.Name() == name {
			return f
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Flow not found"))
	dieOnErr(err)

	return nil
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
