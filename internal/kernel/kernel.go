// internal/kernel/kernel.go

package kernel

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"

	"mlfq/internal/job"
	"mlfq/internal/machine"
	"mlfq/internal/sched"
)

// ErrTickLimit is returned when the simulation reaches max_ticks.
var ErrTickLimit = errors.New("kernel: tick limit reached")

// process is the kernel's view of one workload task.
type process struct {
	task *sched.Task
	spec job.Spec
	user *machine.UserState

	arrival    int64
	finish     int64
	done       bool
	cpu        int64
	slept      int64
	dispatches int
	promotions int
}

// sleeper is a blocked task waiting for its alarm.
type sleeper struct {
	wake int64
	task *sched.Task
}

// Kernel boots a workload on the simulated machine and drives the
// scheduler from the tick loop.
type Kernel struct {
	cfg   Config
	log   *slog.Logger
	obs   sched.Observer
	clock *sched.TickClock
	intr  *machine.Interrupt
	mach  *machine.Machine
	sched *sched.Scheduler

	nextID    sched.TaskID
	procs     map[sched.TaskID]*process
	order     []*process
	arrivals  []job.Spec // sorted by arrival, not yet admitted
	sleepers  *binaryheap.Heap
	destroyed int

	started  bool
	done     chan struct{}
	haltOnce sync.Once
	err      error
	failure  any
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the kernel and scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) { k.log = l }
}

// WithObserver streams every scheduler event to o.
func WithObserver(o sched.Observer) Option {
	return func(k *Kernel) { k.obs = o }
}

// New prepares a kernel for cfg. Nothing runs until Run.
func New(cfg Config, opts ...Option) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k := &Kernel{
		cfg:   cfg,
		clock: sched.NewTickClock(1),
		intr:  machine.NewInterrupt(),
		mach:  machine.New(),
		procs: make(map[sched.TaskID]*process),
		done:  make(chan struct{}),
		sleepers: binaryheap.NewWith(func(a, b any) int {
			sa, sb := a.(*sleeper), b.(*sleeper)
			if c := cmp.Compare(sa.wake, sb.wake); c != 0 {
				return c
			}
			return cmp.Compare(sa.task.ID, sb.task.ID)
		}),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.log == nil {
		k.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	k.arrivals = slices.Clone(cfg.Tasks)
	slices.SortStableFunc(k.arrivals, func(a, b job.Spec) int {
		return cmp.Compare(a.Arrival, b.Arrival)
	})

	observers := sched.Observers{sched.ObserverFunc(k.account)}
	if k.obs != nil {
		observers = append(observers, k.obs)
	}
	s, err := sched.New(cfg.Config, k.clock, k.intr, k.mach,
		sched.WithObserver(observers),
		sched.WithLogger(k.log.With("component", "sched")),
		sched.WithDestroyHook(k.mach.Release),
	)
	if err != nil {
		return nil, err
	}
	k.sched = s
	return k, nil
}

// Scheduler exposes the scheduler, e.g. to print the ready tiers after Run.
func (k *Kernel) Scheduler() *sched.Scheduler { return k.sched }

// Run boots the workload and blocks until the machine halts: every task
// finished, the tick limit was hit or ctx was cancelled. A broken
// scheduler invariant is re-raised here as a panic.
func (k *Kernel) Run(ctx context.Context) (*Report, error) {
	if k.started {
		return nil, errors.New("kernel: already run")
	}
	k.started = true

	if k.cfg.TickMS > 0 {
		k.clock.Start(time.Duration(k.cfg.TickMS) * time.Millisecond)
		defer k.clock.Stop()
	}

	go k.boot(ctx)
	<-k.done

	if k.failure != nil {
		panic(k.failure)
	}
	rep := k.report()
	k.log.Info("halted",
		"ticks", rep.Ticks,
		"finished", rep.Finished(),
		"destroyed", rep.Destroyed,
		"err", k.err,
	)
	return rep, k.err
}

// boot runs on the first thread: it admits the initial tasks and then
// finishes, handing the processor to the workload.
func (k *Kernel) boot(ctx context.Context) {
	defer k.recoverFatal()

	k.intr.SetLevel(machine.IntOff)
	main := sched.NewTask(k.allocID(), "main", sched.MinPriority)
	k.mach.Adopt(main)
	k.sched.Start(main)
	k.admit(ctx, k.clock.Count())
	k.log.Info("booted", "tasks", len(k.cfg.Tasks), "timer_ticks", k.cfg.TimerTicks)
	k.intr.Enable()

	k.finish(ctx)
}

// threadRoot is the body of every workload thread.
func (k *Kernel) threadRoot(ctx context.Context, p *process) func() {
	return func() {
		defer k.recoverFatal()

		k.sched.Begin()
		k.intr.Enable()
		k.execute(ctx, p)
		k.finish(ctx)
	}
}

func (k *Kernel) execute(ctx context.Context, p *process) {
	mode := machine.SystemMode
	if p.user != nil {
		mode = machine.UserMode
	}
	for _, step := range p.spec.Program {
		for i := int64(0); i < step.Compute; i++ {
			k.intr.SetMode(mode)
			if p.user != nil {
				p.user.Regs[0]++
			}
			p.cpu++
			k.oneTick(ctx)
		}
		if step.Sleep > 0 {
			k.sleep(ctx, p, step.Sleep)
		}
	}
}

// oneTick advances the clock by one tick of work and services the
// interrupts due at that tick.
func (k *Kernel) oneTick(ctx context.Context) {
	now := k.advance(ctx)
	if k.intr.Handle(func() { k.interrupts(ctx, now) }) {
		k.yield()
	}
}

func (k *Kernel) advance(ctx context.Context) int64 {
	if err := ctx.Err(); err != nil {
		k.halt(err)
	}
	now := k.clock.Tick()
	if k.cfg.MaxTicks > 0 && now > k.cfg.MaxTicks {
		k.halt(ErrTickLimit)
	}
	k.sched.Emit(sched.StatusEvent{Kind: sched.StatusTick, TaskID: k.sched.Current().ID})
	return now
}

// interrupts runs with interrupts off: alarms, arrivals, then the timer.
// The timer skips aging when the processor was idle.
func (k *Kernel) interrupts(ctx context.Context, now int64) {
	idle := k.intr.Mode() == machine.IdleMode
	k.wake(now)
	k.admit(ctx, now)
	if now%k.cfg.TimerTicks == 0 {
		k.sched.OnTimerTick(idle)
	}
}

// yield puts the running task back on its tier and lets the most urgent
// ready task run; that may be the same task again.
func (k *Kernel) yield() {
	old := k.intr.SetLevel(machine.IntOff)
	cur := k.sched.Current()
	k.closeSegment(cur)
	k.sched.ReadyToRun(cur)
	k.sched.Run(k.sched.FindNextToRun(), false)
	k.intr.SetLevel(old)
}

// sleep blocks the running task for ticks.
func (k *Kernel) sleep(ctx context.Context, p *process, ticks int64) {
	old := k.intr.SetLevel(machine.IntOff)
	cur := p.task
	k.closeSegment(cur)
	k.completeBurst(cur)
	cur.Status = sched.Blocked
	k.sleepers.Push(&sleeper{wake: k.clock.Count() + ticks, task: cur})
	p.slept += ticks
	k.dispatch(ctx, false)
	k.intr.SetLevel(old)
}

// finish ends the running task. It does not return.
func (k *Kernel) finish(ctx context.Context) {
	k.intr.SetLevel(machine.IntOff)
	cur := k.sched.Current()
	k.closeSegment(cur)
	cur.Status = sched.Finished
	if p, ok := k.procs[cur.ID]; ok {
		p.finish = k.clock.Count()
		p.done = true
	}
	k.dispatch(ctx, true)
}

// dispatch hands the processor to the next ready task, idling until one
// shows up. The running task must already be out of RUNNING.
func (k *Kernel) dispatch(ctx context.Context, finishing bool) {
	next := k.sched.FindNextToRun()
	if next == nil {
		k.sched.Emit(sched.StatusEvent{Kind: sched.StatusIdle, TaskID: k.sched.Current().ID})
	}
	for next == nil {
		k.idle(ctx)
		next = k.sched.FindNextToRun()
	}
	k.sched.Run(next, finishing)
}

// idle lets time pass until an alarm or an arrival makes a task ready.
// With nothing left to wait for the machine halts.
func (k *Kernel) idle(ctx context.Context) {
	if k.sleepers.Empty() && len(k.arrivals) == 0 {
		k.halt(nil)
	}
	k.intr.SetMode(machine.IdleMode)
	now := k.advance(ctx)
	k.intr.Handle(func() { k.interrupts(ctx, now) })
	k.intr.SetMode(machine.SystemMode)
}

// wake readies every sleeper whose alarm has expired.
func (k *Kernel) wake(now int64) {
	for {
		v, ok := k.sleepers.Peek()
		if !ok || v.(*sleeper).wake > now {
			return
		}
		k.sleepers.Pop()
		k.sched.ReadyToRun(v.(*sleeper).task)
	}
}

// admit creates the tasks whose arrival tick has come.
func (k *Kernel) admit(ctx context.Context, now int64) {
	for len(k.arrivals) > 0 && k.arrivals[0].Arrival <= now {
		spec := k.arrivals[0]
		k.arrivals = k.arrivals[1:]

		t := sched.NewTask(k.allocID(), spec.Name, spec.Priority)
		t.ApproxBurstTime = spec.Estimate
		t.RemainingBurstTime = spec.Estimate
		p := &process{task: t, spec: spec, arrival: now}
		if spec.User {
			p.user = &machine.UserState{}
			t.Space = p.user
		}
		k.procs[t.ID] = p
		k.order = append(k.order, p)

		k.sched.Register(t)
		k.mach.Fork(t, k.threadRoot(ctx, p))
		k.sched.ReadyToRun(t)
		k.log.Debug("admitted",
			"task", t.Name,
			"id", t.ID,
			"priority", t.Priority,
			"cpu", spec.Program.CPUTicks(),
			"sleep", spec.Program.SleepTicks(),
			"tick", now,
		)
	}
}

// closeSegment records the ticks run since the task was dispatched and
// charges them to its current CPU burst.
func (k *Kernel) closeSegment(t *sched.Task) {
	t.BurstTime = float64(k.clock.Count() - t.StartTick)
	t.CPUBurst += t.BurstTime
	t.RemainingBurstTime = max(t.ApproxBurstTime-t.CPUBurst, 0)
}

// completeBurst folds a finished CPU burst into the estimate:
// t_i = alpha*T + (1-alpha)*t_{i-1}.
func (k *Kernel) completeBurst(t *sched.Task) {
	prev := t.ApproxBurstTime
	t.ApproxBurstTime = k.cfg.Alpha*t.CPUBurst + (1-k.cfg.Alpha)*prev
	k.sched.Emit(sched.StatusEvent{
		Kind:        sched.StatusBurstUpdate,
		TaskID:      t.ID,
		RanTicks:    t.CPUBurst,
		Estimate:    prev,
		NewEstimate: t.ApproxBurstTime,
	})
	t.LastBurstTime = t.BurstTime
	t.BurstTime = 0
	t.CPUBurst = 0
	t.RemainingBurstTime = t.ApproxBurstTime
}

// account keeps per-task counters from the scheduler event stream.
func (k *Kernel) account(ev sched.StatusEvent) {
	switch ev.Kind {
	case sched.StatusDispatch:
		if p, ok := k.procs[ev.TaskID]; ok {
			p.dispatches++
		}
	case sched.StatusPriority:
		if p, ok := k.procs[ev.TaskID]; ok {
			p.promotions++
		}
	case sched.StatusFinish:
		k.destroyed++
	}
}

func (k *Kernel) allocID() sched.TaskID {
	id := k.nextID
	k.nextID++
	return id
}

// halt stops the machine and ends the calling thread.
func (k *Kernel) halt(err error) {
	k.stop(err)
	runtime.Goexit()
}

func (k *Kernel) stop(err error) {
	k.haltOnce.Do(func() {
		k.err = err
		k.mach.Halt()
		close(k.done)
	})
}

// recoverFatal turns a panic on a task thread into a halt; Run re-raises
// it on the caller's goroutine.
func (k *Kernel) recoverFatal() {
	if r := recover(); r != nil {
		k.failure = r
		k.stop(nil)
	}
}
