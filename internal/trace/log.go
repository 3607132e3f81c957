package trace

import (
	"context"
	"log/slog"

	"mlfq/internal/sched"
)

// Logger returns an observer that logs every event at debug level.
func Logger(l *slog.Logger) sched.Observer {
	return sched.ObserverFunc(func(ev sched.StatusEvent) {
		if ev.Kind == sched.StatusTick || !l.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		attrs := []slog.Attr{
			slog.Int64("tick", ev.Tick),
			slog.Uint64("task", uint64(ev.TaskID)),
		}
		switch ev.Kind {
		case sched.StatusEnqueue, sched.StatusDequeue:
			attrs = append(attrs, slog.String("tier", ev.Tier.String()))
		case sched.StatusPriority:
			attrs = append(attrs, slog.Int("from", ev.OldPriority), slog.Int("to", ev.NewPriority))
		case sched.StatusBurstUpdate:
			attrs = append(attrs,
				slog.Float64("ran", ev.RanTicks),
				slog.Float64("from", ev.Estimate),
				slog.Float64("to", ev.NewEstimate),
			)
		case sched.StatusDispatch:
			attrs = append(attrs, slog.Uint64("prev", uint64(ev.PrevID)), slog.Float64("ran", ev.RanTicks))
		case sched.StatusFinish:
			attrs = append(attrs, slog.Float64("ran", ev.RanTicks))
		}
		l.LogAttrs(context.Background(), slog.LevelDebug, ev.Kind.String(), attrs...)
	})
}
