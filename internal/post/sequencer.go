package post

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/tphummel/lab_post/internal/models"
)

// Sequencer states.
const (
	StateOff        = "off"
	StateStandby    = "standby"
	StatePoweringOn = "powering_on"
	StateOpened     = "opened"
	StateFailed     = "failed"
)

// Voltage gates. Standby is informational; normal power must lie strictly
// between MinNormalVoltage and MaxNormalVoltage.
const (
	MinStandbyVoltage = 0
	MaxStandbyVoltage = 10
	MinNormalVoltage  = 180
	MaxNormalVoltage  = 250
)

// Default power supply outputs.
const (
	DefaultStandbyVoltage = 5
	DefaultNormalVoltage  = 220
)

// Options configure a Sequencer.
type Options struct {
	// Serial identifies the computer itself.
	Serial         string
	StandbyVoltage float64
	NormalVoltage  float64
	USBCapacity    int
	// Fixture selects the devices installed at power-on; nil means
	// DefaultFixture.
	Fixture Fixture
	// Reporter receives every status message; nil discards them.
	Reporter Reporter
	// Observer is notified of every device check; may be nil.
	Observer DeviceObserver
	Logger   *slog.Logger
}

// DefaultOptions returns the stock computer.
func DefaultOptions() Options {
	return Options{
		Serial:         "Computer1",
		StandbyVoltage: DefaultStandbyVoltage,
		NormalVoltage:  DefaultNormalVoltage,
		USBCapacity:    DefaultUSBCapacity,
	}
}

// Sequencer runs the power-on self-test of one computer. It moves through
// off, standby and powering_on to either opened or failed, and cannot be
// reused; build a new one to retry.
type Sequencer struct {
	Identity

	opts    Options
	machine *fsm.FSM
	host    *Host
	display *Display
	run     *models.BootRun
	rec     *recorder
}

// NewSequencer returns a sequencer in the off state.
func NewSequencer(opts Options) *Sequencer {
	if opts.Reporter == nil {
		opts.Reporter = Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Sequencer{
		Identity: Identity{Serial: opts.Serial, Type: models.DeviceComputer},
		opts:     opts,
		run: &models.BootRun{
			ID:       uuid.New().String(),
			Serial:   opts.Serial,
			State:    StateOff,
			Messages: []string{},
			Devices:  []models.DeviceResult{},
		},
	}
	s.rec = &recorder{run: s.run, out: opts.Reporter, obs: opts.Observer}
	s.machine = fsm.NewFSM(
		StateOff,
		fsm.Events{
			{Name: "standby", Src: []string{StateOff}, Dst: StateStandby},
			{Name: "power_on", Src: []string{StateStandby}, Dst: StatePoweringOn},
			{Name: "open", Src: []string{StatePoweringOn}, Dst: StateOpened},
			{Name: "fail", Src: []string{StateStandby, StatePoweringOn}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.run.State = e.Dst
				s.opts.Logger.Debug("boot state changed",
					slog.String("run_id", s.run.ID),
					slog.String("event", e.Event),
					slog.String("from", e.Src),
					slog.String("to", e.Dst),
				)
			},
		},
	)
	return s
}

// State returns the current state.
func (s *Sequencer) State() string { return s.machine.Current() }

// Host returns the host, or nil before standby.
func (s *Sequencer) Host() *Host { return s.host }

// Display returns the monitor, or nil before power-on.
func (s *Sequencer) Display() *Display { return s.display }

// Run returns the record of this boot run so far.
func (s *Sequencer) Run() *models.BootRun { return s.run }

// EnterStandby creates the host and applies standby power. A standby voltage
// outside the expected band is accepted without a message.
func (s *Sequencer) EnterStandby(ctx context.Context) error {
	if !s.machine.Is(StateOff) {
		return fmt.Errorf("standby from %s: %w", s.State(), ErrInvalidState)
	}
	s.run.StartedAt = time.Now().UTC()
	s.host = NewHost(s.opts)

	v := s.host.PowerSupply.Standby()
	s.run.StandbyVoltage = v
	if v > MinStandbyVoltage && v < MaxStandbyVoltage {
		s.rec.Report("Computer is standing by")
	}
	return s.transition(ctx, "standby")
}

// Open applies full power and runs the self-test sequence: device power-on,
// CPU self-test, memory, graphics, storage and USB. Any fatal failure stops
// the sequence and is returned as a *FatalError alongside the run record.
// USB results never affect the outcome.
func (s *Sequencer) Open(ctx context.Context) (*models.BootRun, error) {
	if !s.machine.Is(StateStandby) {
		return nil, fmt.Errorf("open from %s: %w", s.State(), ErrInvalidState)
	}

	v := s.host.PowerSupply.PowerOn()
	s.run.NormalVoltage = v
	if v >= MaxNormalVoltage {
		s.rec.Report("Power is too high, the computer is destroyed")
		return s.fail(ctx, fatal(StagePower, ReasonPowerTooHigh, ""))
	}
	if !(v > MinNormalVoltage) {
		s.rec.Report("Power is too low, the computer cannot open")
		return s.fail(ctx, fatal(StagePower, ReasonPowerTooLow, ""))
	}

	s.rec.Report("Computer is opening")
	if err := s.transition(ctx, "power_on"); err != nil {
		return s.run, err
	}
	if err := s.powerOnDevices(); err != nil {
		return s.fail(ctx, err)
	}

	mb := s.host.Mainboard
	cpu := mb.CPU
	if err := cpu.SelfTest(s.rec); err != nil {
		return s.fail(ctx, err)
	}
	if err := cpu.TestMemory(s.rec, mb.Memory); err != nil {
		return s.fail(ctx, err)
	}
	if err := cpu.TestGraphics(s.rec, mb.Graphics); err != nil {
		return s.fail(ctx, err)
	}

	primary := mb.PrimaryGraphics()
	for _, g := range mb.Graphics {
		if g != nil {
			s.display.ShowStatus(primary, "GraphicsCard", g.Identity)
		}
	}
	s.display.ShowStatus(primary, "CPU", cpu.Identity)

	if err := cpu.TestHardDisks(s.rec, mb.HardDisks); err != nil {
		return s.fail(ctx, err)
	}
	for _, d := range mb.HardDisks {
		if d != nil {
			s.display.ShowStatus(primary, "HardDisk", d.Identity)
		}
	}

	cpu.TestUSB(s.rec, mb.USB.Snapshot())

	s.rec.Report("The computer has opened")
	s.display.ShowStatus(primary, "Computer", s.Identity)
	s.display.ShowImage(primary, "Congratulation! Hello World!")

	s.run.Outcome = models.OutcomeOpened
	if err := s.transition(ctx, "open"); err != nil {
		return s.run, err
	}
	s.run.FinishedAt = time.Now().UTC()
	return s.run, nil
}

// powerOnDevices creates the display and powers the mainboard. It is the
// only step that checks the CPU is present at all.
func (s *Sequencer) powerOnDevices() error {
	s.display = NewDisplay("Monitor1", s.rec)
	s.host.PowerOn()
	if s.host.Mainboard.CPU == nil {
		s.rec.Report("CPU does not exist")
		return fatal(StagePowerOn, ReasonCPUAbsent, "")
	}
	return nil
}

func (s *Sequencer) fail(ctx context.Context, cause error) (*models.BootRun, error) {
	s.run.Outcome = models.OutcomeFailed
	if fe, ok := cause.(*FatalError); ok {
		s.run.Stage = string(fe.Stage)
		s.run.Reason = string(fe.Reason)
	}
	if err := s.transition(ctx, "fail"); err != nil {
		return s.run, err
	}
	s.run.FinishedAt = time.Now().UTC()
	s.opts.Logger.Info("boot failed",
		slog.String("run_id", s.run.ID),
		slog.String("stage", s.run.Stage),
		slog.String("reason", s.run.Reason),
	)
	return s.run, cause
}

func (s *Sequencer) transition(ctx context.Context, event string) error {
	if err := s.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("boot event %s: %w", event, err)
	}
	return nil
}

// Boot runs a complete power-on self-test on a fresh sequencer.
func Boot(ctx context.Context, opts Options) (*models.BootRun, error) {
	s := NewSequencer(opts)
	if err := s.EnterStandby(ctx); err != nil {
		return s.Run(), err
	}
	return s.Open(ctx)
}

// recorder copies messages and device results into the run record before
// forwarding them.
type recorder struct {
	run *models.BootRun
	out Reporter
	obs DeviceObserver
}

func (r *recorder) Report(msg string) {
	r.run.Messages = append(r.run.Messages, msg)
	r.out.Report(msg)
}

func (r *recorder) DeviceChecked(id Identity, category models.DeviceType, ok bool) {
	r.run.Devices = append(r.run.Devices, id.result(category, ok))
	if o, isObserver := r.out.(DeviceObserver); isObserver {
		o.DeviceChecked(id, category, ok)
	}
	if r.obs != nil {
		r.obs.DeviceChecked(id, category, ok)
	}
}
