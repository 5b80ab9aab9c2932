// Package monitoring turns a running loop into an HTTP server that reports
// frames, timers and state machines, and lets an operator pause and continue
// the loop.
//
// HTTP handlers never touch the dispatcher, timers or machines directly. The
// monitor copies their state into a snapshot at the end of every tick, on the
// loop goroutine, and the handlers read that copy.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/heartbeat/logging"
	"github.com/sarchlab/heartbeat/monitoring/web"
	"github.com/sarchlab/heartbeat/statemachine"
	"github.com/sarchlab/heartbeat/timer"
	"github.com/sarchlab/heartbeat/timing"
)

const defaultProfileDuration = time.Second

// Monitor serves the state of a Loop over HTTP.
type Monitor struct {
	loop       *timing.Loop
	timers     *timer.Registry
	logger     *slog.Logger
	portNumber int

	registration *timing.Registration

	machinesLock sync.Mutex
	machines     []*statemachine.StateMachine

	snapshotLock sync.RWMutex
	snapshot     snapshot

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a monitor for loop and registers it on the late-update
// channel of the loop's dispatcher. Call it before the loop runs or from the
// loop goroutine.
func NewMonitor(loop *timing.Loop) *Monitor {
	m := &Monitor{
		loop:   loop,
		logger: slog.Default().With(logging.Component("monitor")),
	}

	m.registration = loop.Dispatcher().AddLateHandler(m)

	return m
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("port number is not allowed, using a random port",
			"port", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger *slog.Logger) *Monitor {
	m.logger = logger.With(logging.Component("monitor"))
	return m
}

// RegisterTimers makes the timers of r visible.
func (m *Monitor) RegisterTimers(r *timer.Registry) {
	m.timers = r
}

// RegisterMachine makes sm visible. Registering a machine twice does nothing.
func (m *Monitor) RegisterMachine(sm *statemachine.StateMachine) {
	m.machinesLock.Lock()
	defer m.machinesLock.Unlock()

	for _, x := range m.machines {
		if x == sm {
			return
		}
	}

	m.machines = append(m.machines, sm)
}

// UnregisterMachine hides sm.
func (m *Monitor) UnregisterMachine(sm *statemachine.StateMachine) {
	m.machinesLock.Lock()
	defer m.machinesLock.Unlock()

	machines := make([]*statemachine.StateMachine, 0, len(m.machines))
	for _, x := range m.machines {
		if x != sm {
			machines = append(machines, x)
		}
	}

	m.machines = machines
}

// Handle refreshes the snapshot. It runs on the loop goroutine after the
// update channel of every tick.
func (m *Monitor) Handle(ctx timing.FrameCtx) {
	s := snapshot{frame: frameInfo(ctx)}

	if m.timers != nil {
		for _, t := range m.timers.Timers() {
			s.timers = append(s.timers, timerInfo(t))
		}
	}

	m.machinesLock.Lock()
	machines := append([]*statemachine.StateMachine(nil), m.machines...)
	m.machinesLock.Unlock()

	for _, sm := range machines {
		s.machines = append(s.machines, machineInfo(sm))
	}

	m.snapshotLock.Lock()
	m.snapshot = s
	m.snapshotLock.Unlock()
}

func (m *Monitor) currentSnapshot() snapshot {
	m.snapshotLock.RLock()
	defer m.snapshotLock.RUnlock()

	return m.snapshot
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/frame", m.frame)
	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.resume)
	r.HandleFunc("/api/timers", m.listTimers)
	r.HandleFunc("/api/machines", m.listMachines)
	r.HandleFunc("/api/machine/{name}", m.machineDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in a background goroutine and returns the URL
// of the monitor.
func (m *Monitor) StartServer() (string, error) {
	if m.server != nil {
		return "", errors.New("monitor server already started")
	}

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("listen on port %d: %w", m.portNumber, err)
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor server stopped", "error", err)
		}
	}()

	url := m.URL()
	m.logger.Info("monitoring heartbeat", "url", url)

	return url, nil
}

// URL returns the address of the running server, or an empty string.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	return fmt.Sprintf("http://localhost:%d", m.listener.Addr().(*net.TCPAddr).Port)
}

// OpenBrowser opens the monitor page in the default browser.
func (m *Monitor) OpenBrowser() error {
	url := m.URL()
	if url == "" {
		return errors.New("monitor server is not running")
	}

	return browser.OpenURL(url)
}

// Shutdown stops the server. The snapshot handler stays registered until
// Detach is called.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	err := m.server.Shutdown(ctx)
	m.server = nil
	m.listener = nil

	return err
}

// Detach removes the monitor from the dispatcher. Call it from the loop
// goroutine.
func (m *Monitor) Detach() {
	m.registration.Release()
}

func (m *Monitor) frame(w http.ResponseWriter, _ *http.Request) {
	info := m.currentSnapshot().frame
	info.Paused = m.loop.IsPaused()
	info.Running = m.loop.IsRunning()

	m.writeJSON(w, info)
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	m.loop.Pause()
	m.logger.Info("loop paused")
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) resume(w http.ResponseWriter, _ *http.Request) {
	m.loop.Continue()
	m.logger.Info("loop continued")
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listTimers(w http.ResponseWriter, _ *http.Request) {
	timers := m.currentSnapshot().timers
	if timers == nil {
		timers = []TimerInfo{}
	}

	m.writeJSON(w, timers)
}

func (m *Monitor) listMachines(w http.ResponseWriter, _ *http.Request) {
	machines := m.currentSnapshot().machines
	if machines == nil {
		machines = []MachineInfo{}
	}

	m.writeJSON(w, machines)
}

func (m *Monitor) machineDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var found *MachineInfo

	machines := m.currentSnapshot().machines
	for i := range machines {
		if machines[i].Name == name {
			found = &machines[i]
			break
		}
	}

	if found == nil {
		http.Error(w, "Machine not found", http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(found)
	serializer.SetMaxDepth(2)

	var buf bytes.Buffer
	if err := serializer.Serialize(&buf); err != nil {
		m.fail(w, "serialize machine", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.fail(w, "inspect process", err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.fail(w, "read cpu usage", err)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		m.fail(w, "read memory usage", err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

// collectProfile samples the CPU for the duration given by the "duration"
// query parameter, one second by default.
func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := defaultProfileDuration

	if s := r.URL.Query().Get("duration"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			http.Error(w, fmt.Sprintf("invalid duration %q", s), http.StatusBadRequest)
			return
		}

		duration = d
	}

	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		m.fail(w, "start cpu profile", err)
		return
	}

	select {
	case <-time.After(duration):
	case <-r.Context().Done():
	}

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.fail(w, "parse cpu profile", err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.fail(w, "encode response", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (m *Monitor) fail(w http.ResponseWriter, what string, err error) {
	m.logger.Error("monitor request failed", "op", what, "error", err)
	http.Error(w, fmt.Sprintf("%s: %v", what, err), http.StatusInternalServerError)
}
