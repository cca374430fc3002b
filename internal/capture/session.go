package capture

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"textscope/internal/logger"
	"textscope/internal/orientation"
)

// Status is a point-in-time view of a Session.
type Status struct {
	PermissionGranted bool
	Running           bool
	Orientation       orientation.Orientation
	RotationAngle     int
	Device            string
	FramesDelivered   uint64
}

// Preview is the geometry of the live preview surface.
type Preview struct {
	Bounds        image.Rectangle
	RotationAngle int
}

// Session owns one capture device for the lifetime of a capture screen.
//
// Setup, start and stop run in order on a dedicated worker goroutine. Frames
// are delivered to the handler from a separate goroutine owned by the running
// device.
type Session struct {
	auth     Authorizer
	provider DeviceProvider
	handler  func(Frame)

	ctx        context.Context
	cancel     context.CancelFunc
	commands   chan func(ctx context.Context)
	workerDone chan struct{}
	closeOnce  sync.Once

	mu           sync.RWMutex
	permitted    bool
	running      bool
	orientation  orientation.Orientation
	angle        int
	preview      Preview
	device       Device
	stopDelivery context.CancelFunc
	deliveryDone chan struct{}

	seq       atomic.Uint64
	delivered atomic.Uint64
}

func NewSession(auth Authorizer, provider DeviceProvider, handler func(Frame)) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	angle := orientation.RotationAngle(orientation.Unknown)
	s := &Session{
		auth:       auth,
		provider:   provider,
		handler:    handler,
		ctx:        ctx,
		cancel:     cancel,
		commands:   make(chan func(context.Context), 16),
		workerDone: make(chan struct{}),
		angle:      angle,
		preview:    Preview{RotationAngle: angle},
	}
	go s.work()
	return s
}

func (s *Session) work() {
	defer close(s.workerDone)
	for {
		select {
		case cmd := <-s.commands:
			cmd(s.ctx)
		case <-s.ctx.Done():
			logger.DebugLog("[session]: worker stopped")
			return
		}
	}
}

func (s *Session) enqueue(cmd func(context.Context)) bool {
	select {
	case s.commands <- cmd:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Activate checks camera permission and starts frame delivery once it is
// granted. It returns immediately; a pending permission request holds back
// every later command until it is answered.
func (s *Session) Activate() {
	s.enqueue(s.activate)
}

// Deactivate stops frame delivery and releases the device.
func (s *Session) Deactivate() {
	s.enqueue(func(context.Context) { s.stop() })
}

// Sync waits until every command queued before it has run.
func (s *Session) Sync() {
	done := make(chan struct{})
	if !s.enqueue(func(context.Context) { close(done) }) {
		return
	}
	select {
	case <-done:
	case <-s.workerDone:
	}
}

// Close abandons any pending permission request, stops delivery and ends the
// worker. Recognitions already submitted by the handler are left running.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.workerDone
		s.stop()
	})
}

// SetOrientation applies the rotation for o to both the preview and the
// output frame stream.
func (s *Session) SetOrientation(o orientation.Orientation) {
	angle := orientation.RotationAngle(o)

	s.mu.Lock()
	s.orientation = o
	s.angle = angle
	s.preview.RotationAngle = angle
	s.mu.Unlock()

	logger.DebugLog("[session]: orientation %s -> rotation %d", o, angle)
}

// Layout resizes the preview to the view bounds.
func (s *Session) Layout(bounds image.Rectangle) {
	s.mu.Lock()
	s.preview.Bounds = bounds
	s.mu.Unlock()
}

func (s *Session) Preview() Preview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		PermissionGranted: s.permitted,
		Running:           s.running,
		Orientation:       s.orientation,
		RotationAngle:     s.angle,
		FramesDelivered:   s.delivered.Load(),
	}
	if s.device != nil {
		st.Device = s.device.Name()
	}
	return st
}

func (s *Session) activate(ctx context.Context) {
	granted := false
	switch s.auth.Status() {
	case Authorized:
		granted = true
	case NotDetermined:
		logger.DebugLog("[session]: permission not determined, requesting access")
		ok, err := s.auth.RequestAccess(ctx)
		if err != nil {
			logger.Infof("camera permission request failed: %v", err)
		}
		granted = ok && err == nil
	}

	s.mu.Lock()
	s.permitted = granted
	s.mu.Unlock()

	if !granted {
		logger.DebugLog("[session]: %v, staying idle", ErrPermissionDenied)
		return
	}
	s.start()
}

func (s *Session) start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}

	device, err := SelectDevice(s.provider)
	if err != nil {
		s.mu.Unlock()
		logger.DebugLog("[session]: %v", err)
		return
	}

	deliveryCtx, stopDelivery := context.WithCancel(s.ctx)
	done := make(chan struct{})
	s.running = true
	s.device = device
	s.stopDelivery = stopDelivery
	s.deliveryDone = done
	s.mu.Unlock()

	logger.DebugLog("[session]: starting delivery from %s", device.Name())
	go func() {
		defer close(done)
		if err := device.Run(deliveryCtx, s.deliver); err != nil {
			logger.DebugLog("[session]: device %s stopped: %v", device.Name(), err)
		}
		s.mu.Lock()
		if s.deliveryDone == done {
			s.running = false
		}
		s.mu.Unlock()
	}()
}

func (s *Session) stop() {
	s.mu.Lock()
	stopDelivery, done := s.stopDelivery, s.deliveryDone
	s.stopDelivery = nil
	s.deliveryDone = nil
	s.running = false
	s.device = nil
	s.mu.Unlock()

	if stopDelivery != nil {
		stopDelivery()
		<-done
		logger.DebugLog("[session]: delivery stopped")
	}
}

func (s *Session) deliver(f Frame) {
	s.mu.RLock()
	angle := s.angle
	s.mu.RUnlock()

	f.ID = uuid.NewString()
	f.Seq = s.seq.Add(1)
	f.RotationAngle = angle
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	s.delivered.Add(1)
	s.handler(f)
}
