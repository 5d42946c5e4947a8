package session

import (
	"context"
	"sync"
	"time"

	"github.com/yok-tottii/EmpathyMirror/internal/capture"
)

// ControllerOptions holds the collaborators of a Controller. Nil fields get stubs.
type ControllerOptions struct {
	Capture CaptureManager
	Service MetricService
	Store   SummaryStore
	Logger  Logger

	CalibrationInterval time.Duration // default 1s
	AcquireTimeout      time.Duration // default 10s
	SaveTimeout         time.Duration // default 5s
}

// captureWant is the capture state the loop wants the worker to reach
type captureWant struct {
	epoch uint64
	video bool
}

// Controller owns a Session and serializes every intent, timer tick and
// asynchronous result through one event loop goroutine.
type Controller struct {
	sess    *Session
	capture CaptureManager
	service MetricService
	store   SummaryStore
	log     Logger

	calInterval    time.Duration
	acquireTimeout time.Duration
	saveTimeout    time.Duration

	events chan func()
	quit   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	// loop-owned
	genTicker   *time.Ticker
	genC        <-chan time.Time
	genInterval time.Duration
	genEpoch    uint64
	calTicker   *time.Ticker
	calC        <-chan time.Time
	published   uint64

	captureEpoch uint64
	captureWake  chan struct{}
	captureMu    sync.Mutex
	captureWant  captureWant

	mu     sync.RWMutex
	latest Snapshot
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

// NewController starts the event loop. When a capture manager is given the
// initial acquire is requested immediately.
func NewController(sess *Session, opts ControllerOptions) *Controller {
	if opts.Service == nil {
		opts.Service = UnavailableService{}
	}
	if opts.Store == nil {
		opts.Store = NoopStore{}
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.CalibrationInterval <= 0 {
		opts.CalibrationInterval = time.Second
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = 10 * time.Second
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		sess:           sess,
		capture:        opts.Capture,
		service:        opts.Service,
		store:          opts.Store,
		log:            opts.Logger,
		calInterval:    opts.CalibrationInterval,
		acquireTimeout: opts.AcquireTimeout,
		saveTimeout:    opts.SaveTimeout,
		events:         make(chan func()),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
		captureWake:    make(chan struct{}, 1),
		subs:           make(map[int]chan Snapshot),
	}

	c.latest = sess.Snapshot()
	c.published = c.latest.Version

	if c.capture != nil {
		c.requestCapture(!sess.config.AudioOnly)
		c.wg.Add(1)
		go c.captureWorker()
	}

	c.wg.Add(1)
	go c.run()

	return c
}

func (c *Controller) run() {
	defer c.wg.Done()
	defer close(c.done)

	c.reconcile()
	for {
		select {
		case fn := <-c.events:
			fn()
		case <-c.genC:
			c.onGeneratorTick()
		case <-c.calC:
			c.onCalibrationTick()
		case <-c.quit:
			c.shutdown()
			return
		}
		c.reconcile()
		c.publish()
	}
}

// reconcile arms or disarms the tickers to match the session state.
// A stopped ticker delivers nothing afterwards, so no tick outlives its phase.
func (c *Controller) reconcile() {
	s := c.sess
	wantGen := s.phase == PhaseRecording && !s.calibrating
	interval := s.config.CueInterval

	if c.genTicker != nil && (!wantGen || interval != c.genInterval) {
		c.genTicker.Stop()
		c.genTicker = nil
		c.genC = nil
		c.genEpoch++
		c.log.Debug("generator disarmed")
	}
	if wantGen && c.genTicker == nil {
		c.genTicker = time.NewTicker(interval)
		c.genC = c.genTicker.C
		c.genInterval = interval
		c.genEpoch++
		c.log.Debug("generator armed every %v", interval)
	}

	if c.calTicker != nil && !s.calibrating {
		c.calTicker.Stop()
		c.calTicker = nil
		c.calC = nil
	}
	if s.calibrating && c.calTicker == nil {
		c.calTicker = time.NewTicker(c.calInterval)
		c.calC = c.calTicker.C
	}
}

func (c *Controller) shutdown() {
	if c.genTicker != nil {
		c.genTicker.Stop()
		c.genTicker = nil
		c.genC = nil
	}
	if c.calTicker != nil {
		c.calTicker.Stop()
		c.calTicker = nil
		c.calC = nil
	}
	c.cancel()

	c.mu.Lock()
	c.closed = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()
}

// publish pushes a snapshot to every subscriber if the state changed.
// Each channel holds one value; an unread value is replaced by the newer one.
func (c *Controller) publish() {
	if c.sess.Version() == c.published {
		return
	}
	snap := c.sess.Snapshot()
	c.published = snap.Version

	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = snap
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// do runs op on the loop and waits for its result
func (c *Controller) do(op func() error) error {
	reply := make(chan error, 1)
	select {
	case c.events <- func() { reply <- op() }:
	case <-c.done:
		return ErrClosed
	}
	return <-reply
}

// post hands an asynchronous result to the loop. Dropped after Close.
func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// intent runs a user operation and logs rejected transitions
func (c *Controller) intent(op func() error) error {
	return c.do(func() error {
		err := op()
		if err != nil {
			c.log.Warn("ignored: %v", err)
		}
		return err
	})
}

func (c *Controller) onGeneratorTick() {
	if err := c.sess.GeneratorTick(); err != nil {
		c.log.Debug("tick dropped: %v", err)
		return
	}
	if c.sess.config.Simulate {
		return
	}

	epoch := c.genEpoch
	params := Params{
		SessionID:   c.sess.sessionID,
		RulesOnly:   c.sess.config.RulesOnly,
		AudioOnly:   c.sess.config.AudioOnly,
		CPUThrottle: c.sess.config.CPUThrottle,
		Previous:    c.sess.walk.metrics,
	}
	timeout := c.genInterval / 2

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, timeout)
		defer cancel()

		m, err := c.service.Sample(ctx, params)
		c.post(func() { c.onSample(epoch, m, err) })
	}()
}

func (c *Controller) onSample(epoch uint64, m Metrics, err error) {
	if epoch != c.genEpoch {
		c.log.Debug("stale metric sample dropped")
		return
	}
	if err != nil {
		c.log.Warn("metric service failed, switching to rules-only simulation: %v", err)
		c.sess.fallBackToSimulation()
		return
	}
	if c.sess.config.Simulate {
		c.sess.settleSample()
		return
	}
	c.sess.applyExternal(m)
}

func (c *Controller) onCalibrationTick() {
	if err := c.sess.CalibrationTick(); err != nil {
		c.log.Debug("calibration tick dropped: %v", err)
		return
	}
	if !c.sess.calibrating {
		c.log.Info("calibration finished")
	}
}

// requestCapture sets the wanted capture state and wakes the worker.
// Only the latest request is applied.
func (c *Controller) requestCapture(video bool) {
	c.captureEpoch++
	c.captureMu.Lock()
	c.captureWant = captureWant{epoch: c.captureEpoch, video: video}
	c.captureMu.Unlock()

	select {
	case c.captureWake <- struct{}{}:
	default:
	}
}

// captureWorker applies capture requests in order and releases on shutdown
func (c *Controller) captureWorker() {
	defer c.wg.Done()

	var applied uint64
	for {
		select {
		case <-c.captureWake:
		case <-c.quit:
			if err := c.capture.Release(); err != nil {
				c.log.Warn("failed to release capture: %v", err)
			}
			return
		}

		c.captureMu.Lock()
		want := c.captureWant
		c.captureMu.Unlock()
		if want.epoch == applied {
			continue
		}
		applied = want.epoch

		// Acquire releases the held stream first
		ctx, cancel := context.WithTimeout(c.ctx, c.acquireTimeout)
		st, err := c.capture.Acquire(ctx, want.video)
		cancel()
		c.post(func() { c.onCaptured(want, st, err) })
	}
}

// onCaptured drives the fallback chain: video failure retries audio only,
// audio failure switches to simulated metrics.
func (c *Controller) onCaptured(want captureWant, st capture.Status, err error) {
	if want.epoch != c.captureEpoch {
		return
	}
	if err == nil {
		c.sess.setCapture(st)
		return
	}

	c.sess.setCapture(capture.Status{})
	if want.video {
		c.log.Warn("camera capture failed (%s), falling back to audio only", capture.KindOf(err))
		c.sess.SetAudioOnlyFallback(true)
		c.requestCapture(false)
		return
	}
	c.log.Warn("microphone capture failed (%s), switching to simulated metrics", capture.KindOf(err))
	c.sess.forceSimulate()
}

func (c *Controller) saveSummary(sum Summary) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, c.saveTimeout)
		defer cancel()

		if err := c.store.Save(ctx, sum); err != nil {
			c.log.Warn("failed to save summary %s: %v", sum.SessionID, err)
			return
		}
		c.log.Debug("summary %s saved", sum.SessionID)
	}()
}

// StartRecording begins a session from Idle or Stopped
func (c *Controller) StartRecording() error {
	return c.intent(func() error {
		if err := c.sess.StartRecording(); err != nil {
			return err
		}
		c.log.Info("recording started (session %s)", c.sess.sessionID)
		return nil
	})
}

// Pause suspends the generator
func (c *Controller) Pause() error {
	return c.intent(c.sess.Pause)
}

// Resume re-arms the generator
func (c *Controller) Resume() error {
	return c.intent(c.sess.Resume)
}

// Stop ends the session and hands the summary to the store
func (c *Controller) Stop() error {
	return c.intent(func() error {
		if err := c.sess.Stop(); err != nil {
			return err
		}
		sum := *c.sess.summary
		c.log.Info("recording stopped (session %s, %d cues)", sum.SessionID, sum.CuesEmitted)
		c.saveSummary(sum)
		return nil
	})
}

// ToggleRecording starts, pauses or resumes depending on the phase
func (c *Controller) ToggleRecording() error {
	return c.intent(func() error {
		switch c.sess.phase {
		case PhaseRecording:
			return c.sess.Pause()
		case PhasePaused:
			return c.sess.Resume()
		default:
			return c.sess.StartRecording()
		}
	})
}

// StartCalibration starts the baseline countdown
func (c *Controller) StartCalibration() error {
	return c.intent(c.sess.StartCalibration)
}

// CancelCalibration ends the countdown early
func (c *Controller) CancelCalibration() error {
	return c.intent(c.sess.CancelCalibration)
}

// AcceptCue records acceptance of the live cue
func (c *Controller) AcceptCue() error {
	return c.intent(c.sess.AcceptCue)
}

// RejectCue records rejection of the live cue
func (c *Controller) RejectCue() error {
	return c.intent(c.sess.RejectCue)
}

// SetSimulateMode toggles synthetic metrics
func (c *Controller) SetSimulateMode(v bool) error {
	return c.do(func() error {
		c.sess.SetSimulateMode(v)
		return nil
	})
}

// SetRulesOnlyMode toggles rules-only coaching
func (c *Controller) SetRulesOnlyMode(v bool) error {
	return c.do(func() error {
		c.sess.SetRulesOnlyMode(v)
		return nil
	})
}

// SetAudioOnlyFallback toggles the camera. Turning audio-only on drops the
// video stream; turning it off asks for video again.
func (c *Controller) SetAudioOnlyFallback(v bool) error {
	return c.do(func() error {
		prev := c.sess.config.AudioOnly
		c.sess.SetAudioOnlyFallback(v)
		if c.capture != nil && prev != v {
			c.requestCapture(!v)
		}
		return nil
	})
}

// RestartCapture re-acquires the capture handle with the current audio-only
// setting, e.g. after the input device changed
func (c *Controller) RestartCapture() error {
	return c.do(func() error {
		if c.capture == nil {
			return nil
		}
		c.requestCapture(!c.sess.config.AudioOnly)
		return nil
	})
}

// SetCPUThrottle sets the jitter scale, clamped to [0.2, 1.0]
func (c *Controller) SetCPUThrottle(v float64) error {
	return c.do(func() error {
		c.sess.SetCPUThrottle(v)
		return nil
	})
}

// SetCueInterval changes the generator cadence; a running ticker is re-armed
func (c *Controller) SetCueInterval(d time.Duration) error {
	return c.do(func() error {
		c.sess.SetCueInterval(d)
		return nil
	})
}

// Snapshot returns the latest published state
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// Subscribe returns a channel that receives the current snapshot and every
// later change. Intermediate snapshots may be skipped; the latest never is.
// The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.latest
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Close stops the loop, cancels pending work and releases the capture handle
func (c *Controller) Close() error {
	c.once.Do(func() {
		close(c.quit)
	})
	c.wg.Wait()
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
