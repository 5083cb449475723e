package bot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"time"

	"jordanella.com/clash-arena-go/internal/cv"
	"jordanella.com/clash-arena-go/internal/events"
	"jordanella.com/clash-arena-go/internal/input"
	"jordanella.com/clash-arena-go/internal/logging"
	"jordanella.com/clash-arena-go/internal/window"
)

// BoundsCapturer is a capturer that can be re-targeted after the mirror
// window moves. cv.RegionCapture implements it; tests provide fakes.
type BoundsCapturer interface {
	cv.Capturer
	SetBounds(window.Rect)
}

// DeployRecord describes one executed deploy for persistence
type DeployRecord struct {
	Slot       int
	Card       string
	Confidence float64
	TargetX    float64
	TargetY    float64
	DryRun     bool
	At         time.Time
}

// Recorder persists run sessions and deploys. The database package provides
// the production implementation; a nil recorder disables persistence.
type Recorder interface {
	StartSession(windowTitle string, randomize bool) (int64, error)
	RecordDeploy(sessionID int64, record DeployRecord) error
	CompleteSession(sessionID int64, deploys, failedCycles int, status string) error
}

// Bot runs the deploy loop against a located mirror window. One Bot instance
// serves one Run; state is not reusable across runs.
type Bot struct {
	config *Config
	run    RunConfig

	finder   window.Finder
	capturer BoundsCapturer
	svc      *cv.Service
	dragger  input.Dragger
	detector *cv.Detector
	recorder Recorder
	bus      events.EventBus
	logger   *logging.Logger
	rng      *rand.Rand

	humanizer *Humanizer
	testMode  bool

	state        CycleState
	stats        Stats
	win          *window.Window
	slotCursor   int
	targetCursor int
	sessionID    int64
}

// New creates a bot wired to the given window finder, capturer and dragger
func New(config *Config, run RunConfig, finder window.Finder, capturer BoundsCapturer, dragger input.Dragger) *Bot {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Bot{
		config:    config,
		run:       run,
		finder:    finder,
		capturer:  capturer,
		svc:       cv.NewService(capturer),
		dragger:   dragger,
		logger:    logging.NewLogger("Bot"),
		rng:       rng,
		humanizer: NewHumanizer(config.Humanizer, rng),
		state:     StateIdle,
	}
}

// WithDetector attaches a card detector; without one every slot is treated
// as interchangeable
func (b *Bot) WithDetector(d *cv.Detector) *Bot {
	b.detector = d
	return b
}

// WithRecorder attaches deploy-history persistence
func (b *Bot) WithRecorder(r Recorder) *Bot {
	b.recorder = r
	return b
}

// WithEventBus attaches a bus for run progress events
func (b *Bot) WithEventBus(bus events.EventBus) *Bot {
	b.bus = bus
	return b
}

// WithLogger replaces the default component logger
func (b *Bot) WithLogger(logger *logging.Logger) *Bot {
	b.logger = logger
	return b
}

// WithRand replaces the random source (tests seed it for determinism)
func (b *Bot) WithRand(rng *rand.Rand) *Bot {
	b.rng = rng
	b.humanizer = NewHumanizer(b.config.Humanizer, rng)
	return b
}

// WithTestMode makes the run a dry run: everything except input injection
func (b *Bot) WithTestMode(enabled bool) *Bot {
	b.testMode = enabled
	return b
}

// State returns the current loop state
func (b *Bot) State() CycleState {
	return b.state
}

// Stats returns the accumulated run counters
func (b *Bot) Stats() Stats {
	return b.stats
}

// Run executes the deploy loop until the configured count is reached or the
// context is cancelled. Cancellation is graceful and returns nil; a missing
// window or refused input injection is fatal and returns the error.
func (b *Bot) Run(ctx context.Context) error {
	b.stats = Stats{StartTime: time.Now()}

	if err := b.locate(); err != nil {
		b.state = StateFailed
		return err
	}

	b.startSession()
	b.publish(events.EventTypeRunStarted, map[string]interface{}{
		"window": b.win.Title,
		"count":  b.run.Count,
		"random": b.run.Randomize,
	})

	err := b.loop(ctx)

	status := "completed"
	switch {
	case err != nil:
		b.state = StateFailed
		status = "failed"
	case ctx.Err() != nil:
		status = "cancelled"
		b.state = StateDone
	default:
		b.state = StateDone
	}

	b.completeSession(status)
	b.publish(events.EventTypeRunCompleted, map[string]interface{}{
		"status":        status,
		"deploys":       b.stats.Deploys,
		"failed_cycles": b.stats.FailedCycles,
		"elapsed":       b.stats.Elapsed().String(),
	})

	b.logger.InfoWithContext("Run finished", map[string]interface{}{
		"status":  status,
		"deploys": b.stats.Deploys,
		"elapsed": b.stats.Elapsed().Round(time.Millisecond),
	})

	return err
}

// locate finds the mirror window and brings it to the foreground
func (b *Bot) locate() error {
	b.state = StateLocating

	win, err := b.finder.Find(b.config.WindowTitle)
	if err != nil {
		return fmt.Errorf("failed to locate window %q: %w", b.config.WindowTitle, err)
	}
	b.win = win
	b.capturer.SetBounds(win.Bounds)

	b.logger.InfoWithContext("Window located", map[string]interface{}{
		"title":  win.Title,
		"bounds": fmt.Sprintf("%dx%d at (%d,%d)", win.Bounds.Width, win.Bounds.Height, win.Bounds.X, win.Bounds.Y),
	})

	if !b.testMode {
		if err := b.finder.Activate(win); err != nil {
			b.logger.Warn(fmt.Sprintf("Could not focus window: %v", err))
		}
		// give the window manager a moment to raise it
		time.Sleep(300 * time.Millisecond)
	}

	return nil
}

// loop runs cycles until done. Cancellation is checked at state boundaries.
func (b *Bot) loop(ctx context.Context) error {
	for b.run.Count == 0 || b.stats.Deploys < b.run.Count {
		if ctx.Err() != nil {
			b.logger.Info("Run cancelled")
			return nil
		}

		deployed, err := b.cycle(ctx)
		if err != nil {
			return err
		}

		// a cycle abandoned by cancellation is not a failure
		if ctx.Err() != nil {
			b.logger.Info("Run cancelled")
			return nil
		}

		if !deployed && b.run.Strict {
			return fmt.Errorf("cycle failed in strict mode after %d deploys", b.stats.Deploys)
		}

		// last deploy of a counted run does not need the trailing wait
		if b.run.Count > 0 && b.stats.Deploys >= b.run.Count {
			break
		}

		if err := b.wait(ctx); err != nil {
			return nil
		}
	}

	return nil
}

// cycle performs one capture-detect-drag pass. A false return with nil error
// means the cycle failed recoverably (capture gave up); the loop decides
// whether to continue.
func (b *Bot) cycle(ctx context.Context) (bool, error) {
	if err := b.retarget(); err != nil {
		return false, err
	}

	frame, err := b.capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		b.stats.FailedCycles++
		b.logger.Error("Cycle failed: capture gave up", err)
		b.publish(events.EventTypeCycleFailed, map[string]interface{}{
			"reason": err.Error(),
		})
		return false, nil
	}

	slot, card, confidence := b.pickSlot(frame)
	target := b.pickTarget()

	if err := b.deploy(slot, card, confidence, target); err != nil {
		return false, err
	}

	b.publish(events.EventTypeCycleCompleted, map[string]interface{}{
		"deploys": b.stats.Deploys,
	})
	return true, nil
}

// retarget refreshes window bounds so a moved window is tracked within one
// cycle. A window that disappeared mid-run is fatal.
func (b *Bot) retarget() error {
	if err := b.finder.Refresh(b.win); err != nil {
		return fmt.Errorf("window %q disappeared mid-run: %w", b.config.WindowTitle, window.ErrWindowNotFound)
	}
	b.capturer.SetBounds(b.win.Bounds)
	return nil
}

// capture grabs a frame, retrying transient failures a bounded number of
// times before giving up on the cycle
func (b *Bot) capture(ctx context.Context) (*image.RGBA, error) {
	b.state = StateCapturing
	b.svc.InvalidateCache()

	attempts := 1 + b.run.CaptureRetries
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		frame, err := b.svc.CaptureFrame(true)
		if err == nil {
			return frame, nil
		}
		lastErr = err

		if !errors.Is(err, cv.ErrCaptureFailed) {
			return nil, err
		}

		b.logger.WarnWithContext("Capture failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"of":      attempts,
			"error":   err.Error(),
		})
		time.Sleep(200 * time.Millisecond)
	}

	return nil, fmt.Errorf("capture failed after %d attempts: %w", attempts, lastErr)
}

// pickSlot chooses which card slot to deploy from and, when detection is
// available, identifies the card in it. Detection never blocks a deploy:
// Unknown slots are deployed anyway because slots are interchangeable.
func (b *Bot) pickSlot(frame *image.RGBA) (int, cv.Identity, float64) {
	var slot int
	if b.run.Randomize {
		slot = b.rng.Intn(b.config.SlotCount())
	} else {
		slot = b.slotCursor
		b.slotCursor = (b.slotCursor + 1) % b.config.SlotCount()
	}

	card := cv.IdentityUnknown
	confidence := 0.0

	if b.detector != nil && b.detector.Enabled() {
		b.state = StateDetecting
		card, confidence = b.identifySlot(frame, slot)
	}

	return slot, card, confidence
}

// identifySlot crops the slot from the frame and runs template matching
func (b *Bot) identifySlot(frame *image.RGBA, slot int) (cv.Identity, float64) {
	pos, err := b.config.SlotPosition(slot)
	if err != nil {
		return cv.IdentityUnknown, 0
	}

	mapper := NewMapper(b.win.Bounds)
	center := mapper.ToFrame(pos)
	halfW := int(b.config.SlotWidth * float64(b.win.Bounds.Width) / 2)
	halfH := int(b.config.SlotHeight * float64(b.win.Bounds.Height) / 2)

	crop, err := b.svc.CropSlot(frame, cv.NewRegion(
		center.X-halfW, center.Y-halfH,
		center.X+halfW, center.Y+halfH,
	))
	if err != nil {
		b.logger.Warn(fmt.Sprintf("Slot %d crop failed: %v", slot, err))
		return cv.IdentityUnknown, 0
	}

	card, confidence, err := b.detector.Identify(crop)
	if err != nil {
		b.logger.Warn(fmt.Sprintf("Slot %d detection error: %v", slot, err))
		return cv.IdentityUnknown, 0
	}

	if card == cv.IdentityUnknown {
		b.stats.Unknowns++
	} else {
		b.stats.Detections++
		b.publish(events.EventTypeCardDetected, map[string]interface{}{
			"slot":       slot,
			"card":       string(card),
			"confidence": confidence,
		})
	}

	return card, confidence
}

// pickTarget chooses the next drop target, sequentially or at random
func (b *Bot) pickTarget() NormalizedPoint {
	if b.run.Randomize {
		return b.config.DropTargets[b.rng.Intn(len(b.config.DropTargets))]
	}
	target := b.config.DropTargets[b.targetCursor]
	b.targetCursor = (b.targetCursor + 1) % len(b.config.DropTargets)
	return target
}

// deploy drags the chosen slot to the chosen target. Injection failures are
// fatal: the OS refusing input means focus or permissions are broken.
func (b *Bot) deploy(slot int, card cv.Identity, confidence float64, target NormalizedPoint) error {
	b.state = StateDragging

	slotPos, err := b.config.SlotPosition(slot)
	if err != nil {
		return err
	}

	duration := b.config.DragDuration
	if b.run.Randomize {
		slotPos = b.humanizer.JitterPosition(slotPos)
		target = b.humanizer.JitterPosition(target)
		duration = b.humanizer.DragDuration(duration)
	}

	mapper := NewMapper(b.win.Bounds)
	from := mapper.ToAbsolute(slotPos)
	to := mapper.ToAbsolute(target)

	if b.testMode {
		b.logger.InfoWithContext("Dry run: would deploy", map[string]interface{}{
			"slot": slot,
			"card": string(card),
			"from": fmt.Sprintf("(%d,%d)", from.X, from.Y),
			"to":   fmt.Sprintf("(%d,%d)", to.X, to.Y),
		})
	} else {
		if err := b.dragger.Drag(from, to, duration); err != nil {
			return fmt.Errorf("deploy from slot %d failed: %w", slot, err)
		}
	}

	b.stats.Deploys++
	b.logger.InfoWithContext("Deployed", map[string]interface{}{
		"n":      b.stats.Deploys,
		"slot":   slot,
		"card":   string(card),
		"target": fmt.Sprintf("(%.3f,%.3f)", target.X, target.Y),
	})

	b.publish(events.EventTypeDeployExecuted, map[string]interface{}{
		"n":    b.stats.Deploys,
		"slot": slot,
		"card": string(card),
	})

	b.recordDeploy(DeployRecord{
		Slot:       slot,
		Card:       string(card),
		Confidence: confidence,
		TargetX:    target.X,
		TargetY:    target.Y,
		DryRun:     b.testMode,
		At:         time.Now(),
	})

	return nil
}

// wait sleeps the inter-deploy delay, waking early on cancellation
func (b *Bot) wait(ctx context.Context) error {
	b.state = StateWaiting

	delay := b.config.DeployDelay
	if b.run.Delay > 0 {
		delay = b.run.Delay
	}
	if b.run.Randomize {
		delay = b.humanizer.VaryDelay(delay)
		if pause := b.humanizer.MaybePause(); pause > 0 {
			b.logger.DebugWithContext("Pausing between deploys", map[string]interface{}{
				"pause": pause.Round(time.Millisecond).String(),
			})
			delay += pause
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		b.logger.Info("Run cancelled")
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (b *Bot) startSession() {
	if b.recorder == nil {
		return
	}
	id, err := b.recorder.StartSession(b.config.WindowTitle, b.run.Randomize)
	if err != nil {
		b.logger.Warn(fmt.Sprintf("Could not start history session: %v", err))
		b.recorder = nil
		return
	}
	b.sessionID = id
}

func (b *Bot) recordDeploy(record DeployRecord) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.RecordDeploy(b.sessionID, record); err != nil {
		b.logger.Warn(fmt.Sprintf("Could not record deploy: %v", err))
	}
}

func (b *Bot) completeSession(status string) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.CompleteSession(b.sessionID, b.stats.Deploys, b.stats.FailedCycles, status); err != nil {
		b.logger.Warn(fmt.Sprintf("Could not complete history session: %v", err))
	}
}

func (b *Bot) publish(eventType events.EventType, data map[string]interface{}) {
	if b.bus == nil {
		return
	}
	b.bus.Publish(events.Event{
		Type:   eventType,
		Source: "bot",
		Data:   data,
	})
}
