package web

import (
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/render"
)

// ErrRunInFlight is returned when a workspace already has a pending run.
var ErrRunInFlight = errors.New("an analysis is already running")

// Workspace is the per-browser studio state. All fields are guarded by mu.
type Workspace struct {
	ID string

	mu       sync.Mutex
	fileName string
	data     string
	goal     string
	models   []analysis.ModelType
	metrics  []analysis.MetricType
	status   render.Status
	result   *analysis.AnalysisResult
	lastErr  string
	running  bool
	lastSeen time.Time
}

// Snapshot is a consistent copy of a workspace for rendering.
type Snapshot struct {
	FileName  string
	DataChars int
	Goal      string
	Models    []analysis.ModelType
	Metrics   []analysis.MetricType
	Status    render.Status
	Result    *analysis.AnalysisResult
	Error     string
	Running   bool
}

func newWorkspace(now time.Time) *Workspace {
	return &Workspace{
		ID:       uuid.NewString(),
		goal:     analysis.DefaultGoal,
		models:   analysis.DefaultModels(),
		metrics:  analysis.DefaultMetrics(),
		status:   render.StatusIdle,
		lastSeen: now,
	}
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		FileName:  w.fileName,
		DataChars: utf8.RuneCountInString(w.data),
		Goal:      w.goal,
		Models:    append([]analysis.ModelType(nil), w.models...),
		Metrics:   append([]analysis.MetricType(nil), w.metrics...),
		Status:    w.status,
		Result:    w.result,
		Error:     w.lastErr,
		Running:   w.running,
	}
}

// SetFile stores newly ingested data and clears the displayed result. It is
// allowed while a run is pending.
func (w *Workspace) SetFile(name, data string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fileName = name
	w.data = data
	w.result = nil
	w.lastErr = ""
	if !w.running {
		w.status = render.StatusIdle
	}
}

// SetSelections records the form state so it survives a failed run.
func (w *Workspace) SetSelections(goal string, models []analysis.ModelType, metrics []analysis.MetricType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.goal = goal
	w.models = models
	w.metrics = metrics
}

// Request assembles a run request from the current state.
func (w *Workspace) Request() analysis.Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	return analysis.Request{
		DataContext: w.data,
		FileName:    w.fileName,
		Goal:        w.goal,
		Models:      append([]analysis.ModelType(nil), w.models...),
		Metrics:     append([]analysis.MetricType(nil), w.metrics...),
	}
}

// Fail records an error without touching the displayed result.
func (w *Workspace) Fail(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = render.StatusError
	w.lastErr = msg
}

// BeginRun moves the workspace to loading.
func (w *Workspace) BeginRun() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrRunInFlight
	}
	w.running = true
	w.status = render.StatusLoading
	w.lastErr = ""
	return nil
}

// FinishRun ends the pending run. The result is replaced only on success.
func (w *Workspace) FinishRun(res *analysis.AnalysisResult, errMsg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	if errMsg != "" {
		w.status = render.StatusError
		w.lastErr = errMsg
		return
	}
	w.result = res
	w.status = render.StatusReady
}

// Reset returns the workspace to its initial state unless a run is pending.
func (w *Workspace) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrRunInFlight
	}
	w.fileName, w.data = "", ""
	w.goal = analysis.DefaultGoal
	w.models = analysis.DefaultModels()
	w.metrics = analysis.DefaultMetrics()
	w.result = nil
	w.lastErr = ""
	w.status = render.StatusIdle
	return nil
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return 0
	}
	return now.Sub(w.lastSeen)
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

// Store keeps workspaces in memory and expires idle ones lazily.
type Store struct {
	mu        sync.Mutex
	items     map[string]*Workspace
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{items: make(map[string]*Workspace), ttl: ttl, now: time.Now}
}

// Get returns the workspace for id, if it exists and has not expired.
func (s *Store) Get(id string) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	w, ok := s.items[id]
	if !ok {
		return nil, false
	}
	w.touch(now)
	return w, true
}

// Create registers a fresh workspace.
func (s *Store) Create() *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := newWorkspace(s.now())
	s.items[w.ID] = w
	return w
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// sweep at most once per minute; running workspaces never expire
func (s *Store) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now
	for id, w := range s.items {
		if w.idleSince(now) > s.ttl {
			delete(s.items, id)
		}
	}
}
