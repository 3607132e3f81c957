package sched

// OnTimerTick is the timer interrupt callback. It ages every READY task,
// then decides whether the running task must give up the processor at the
// next return from interrupt. It reports whether that yield was requested.
//
// It runs with interrupts disabled and never switches tasks itself.
func (s *Scheduler) OnTimerTick(idle bool) bool {
	s.assertIntOff("OnTimerTick")
	if idle {
		return false
	}

	now := s.clock.Count()
	for _, v := range s.tasks.Values() {
		if t := v.(*Task); t.Status == Ready {
			s.age(t, now)
		}
	}
	return s.preemptCurrent()
}

// age accumulates the wait time of t and promotes it once it has waited
// WaitThreshold ticks.
func (s *Scheduler) age(t *Task, now int64) {
	from := s.cfg.Bands.TierOf(t.Priority)
	if from == TierNone {
		s.fatal("Aging", t, "priority %d outside [%d,%d]", t.Priority, MinPriority, s.cfg.Bands.Max)
	}
	if !s.ready.contains(from, t) {
		s.fatal("Aging", t, "READY with priority %d but not queued in %s", t.Priority, from)
	}

	t.WaitTime = now - t.StartWaitTime
	if t.WaitTime < s.cfg.WaitThreshold {
		return
	}
	t.StartWaitTime = now

	old := t.Priority
	t.Priority = min(old+s.cfg.AgingStep, s.cfg.Bands.Max)
	if t.Priority == old {
		return
	}
	s.Emit(StatusEvent{Kind: StatusPriority, TaskID: t.ID, OldPriority: old, NewPriority: t.Priority})

	to := s.cfg.Bands.TierOf(t.Priority)
	switch {
	case to != from:
		s.ready.remove(from, t)
		s.Emit(StatusEvent{Kind: StatusDequeue, TaskID: t.ID, Tier: from})
		s.insert(t)
	case to == L2:
		// L2 is keyed by priority; move t to its new position.
		s.ready.remove(L2, t)
		s.ready.insert(L2, t)
	}
}

// preemptCurrent arms yield-on-return for the running task:
// L3 always (round robin), L2 only when L1 has work, L1 always so a
// shorter job can win the next dispatch.
func (s *Scheduler) preemptCurrent() bool {
	cur := s.current
	if cur == nil || cur.Status != Running {
		return false
	}

	var yield bool
	switch tier := s.cfg.Bands.TierOf(cur.Priority); tier {
	case L3, L1:
		yield = true
	case L2:
		yield = s.ready.size(L1) > 0
	default:
		s.fatal("Preempt", cur, "priority %d outside [%d,%d]", cur.Priority, MinPriority, s.cfg.Bands.Max)
	}

	if yield {
		s.intr.YieldOnReturn()
		s.Emit(StatusEvent{Kind: StatusPreempt, TaskID: cur.ID, Tier: s.cfg.Bands.TierOf(cur.Priority)})
	}
	return yield
}
