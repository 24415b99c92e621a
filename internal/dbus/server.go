package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/pipeline"
	"github.com/dooshek/textgrab/internal/state"
	"github.com/dooshek/textgrab/internal/timing"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	dbusServiceName = "com.dooshek.textgrab"
	dbusObjectPath  = "/com/dooshek/textgrab/Capture"
	dbusInterface   = "com.dooshek.textgrab.Capture"
)

// Runner is the part of the pipeline the service drives
type Runner interface {
	Run(ctx context.Context, target string, threshold float64) ([]types.TextRegion, error)
	Busy() bool
}

type emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Server exposes capture runs on the session bus
type Server struct {
	conn     *dbus.Conn
	emitter  emitter
	runner   Runner
	recorder *timing.Recorder
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
}

// NewServer creates a D-Bus server; recorder may be nil
func NewServer(runner Runner, recorder *timing.Recorder) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		runner:   runner,
		recorder: recorder,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the D-Bus server
func (s *Server) Start() error {
	var err error
	s.conn, err = dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	reply, err := s.conn.RequestName(dbusServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		s.conn.Close()
		return fmt.Errorf("name already taken")
	}

	err = s.conn.Export(s, dbusObjectPath, dbusInterface)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: dbusObjectPath,
		Interfaces: []introspect.Interface{{
			Name: dbusInterface,
			Methods: []introspect.Method{
				{
					Name: "Capture",
					Args: []introspect.Arg{
						{Name: "target", Type: "s", Direction: "in"},
						{Name: "threshold", Type: "d", Direction: "in"},
						{Name: "regions", Type: "s", Direction: "out"},
					},
				},
				{
					Name: "GetStatus",
					Args: []introspect.Arg{
						{Name: "busy", Type: "b", Direction: "out"},
					},
				},
				{
					Name: "GetTimings",
					Args: []introspect.Arg{
						{Name: "timings", Type: "s", Direction: "out"},
					},
				},
			},
			Signals: []introspect.Signal{
				{
					Name: "CaptureStarted",
					Args: []introspect.Arg{{Name: "target", Type: "s"}},
				},
				{
					Name: "TextReady",
					Args: []introspect.Arg{{Name: "text", Type: "s"}},
				},
				{
					Name: "CaptureError",
					Args: []introspect.Arg{
						{Name: "kind", Type: "s"},
						{Name: "message", Type: "s"},
					},
				},
			},
		}},
	}

	err = s.conn.Export(introspect.NewIntrospectable(node), dbusObjectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	s.mu.Lock()
	s.emitter = s.conn
	s.mu.Unlock()

	logger.Infof("D-Bus service started: %s", dbusServiceName)
	return nil
}

// Stop stops the D-Bus server
func (s *Server) Stop() {
	s.cancel()
	s.mu.Lock()
	s.emitter = nil
	s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
	logger.Infof("D-Bus service stopped")
}

// Wait waits for the server context to be cancelled
func (s *Server) Wait() {
	<-s.ctx.Done()
}

// Capture runs the pipeline and returns the regions as JSON (D-Bus method).
// An empty target uses the configured default, a negative threshold the
// configured threshold.
func (s *Server) Capture(target string, threshold float64) (string, *dbus.Error) {
	if target == "" {
		target = state.Get().GetDefaultTarget()
	}
	if target == "" {
		return "", dbus.MakeFailedError(fmt.Errorf("no target given and no default_target configured"))
	}
	logger.Debugf("D-Bus: Capture called for %q", target)

	s.emitSignal("CaptureStarted", target)

	regions, err := s.runner.Run(s.ctx, target, threshold)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}

	if regions == nil {
		regions = []types.TextRegion{}
	}
	data, err := json.Marshal(regions)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// GetStatus reports whether a run is in flight (D-Bus method)
func (s *Server) GetStatus() (bool, *dbus.Error) {
	return s.runner.Busy(), nil
}

// GetTimings returns the stage summary as JSON (D-Bus method)
func (s *Server) GetTimings() (string, *dbus.Error) {
	if s.recorder == nil {
		return "{}", nil
	}
	out, err := s.recorder.SummaryJSON()
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return out, nil
}

// OnRun emits TextReady or CaptureError for every finished run, whatever
// triggered it
func (s *Server) OnRun(report pipeline.Report) {
	if report.Err != nil {
		s.emitSignal("CaptureError", types.KindOf(report.Err).String(), report.Err.Error())
		return
	}
	s.emitSignal("TextReady", report.Text())
}

// emitSignal emits a D-Bus signal
func (s *Server) emitSignal(name string, args ...interface{}) {
	s.mu.Lock()
	em := s.emitter
	s.mu.Unlock()

	if em == nil {
		logger.Debugf("D-Bus: Cannot emit signal %s - no connection", name)
		return
	}

	err := em.Emit(dbus.ObjectPath(dbusObjectPath), dbusInterface+"."+name, args...)
	if err != nil {
		logger.Errorf("D-Bus: Failed to emit signal %s", err, name)
	} else {
		logger.Debugf("D-Bus: Emitted signal: %s", name)
	}
}
