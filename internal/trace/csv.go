// internal/trace/csv.go

package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"mlfq/internal/sched"
)

// Header is the first record of every CSV trace.
var Header = []string{
	"timestamp", "tick", "event", "code", "task_id", "prev_id", "tier",
	"old_priority", "new_priority", "ran_ticks", "estimate", "new_estimate",
}

// CSV records every event as one CSV row.
type CSV struct {
	f *os.File
	w *csv.Writer
}

// NewCSV writes the header to w and returns a recorder appending to it.
func NewCSV(w io.Writer) (*CSV, error) {
	c := &CSV{w: csv.NewWriter(w)}
	if err := c.w.Write(Header); err != nil {
		return nil, err
	}
	c.w.Flush()
	return c, c.w.Error()
}

// CreateCSV opens path for CSV logging of events.
func CreateCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace: %w", err)
	}
	c, err := NewCSV(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("write trace header: %w", err)
	}
	c.f = f
	return c, nil
}

func (c *CSV) Observe(ev sched.StatusEvent) {
	if ev.Kind == sched.StatusTick {
		return
	}
	tier := ""
	if ev.Tier != sched.TierNone {
		tier = ev.Tier.String()
	}
	rec := []string{
		ev.Time.Format(time.RFC3339Nano),
		strconv.FormatInt(ev.Tick, 10),
		ev.Kind.String(),
		ev.Kind.Code(),
		strconv.FormatUint(uint64(ev.TaskID), 10),
		strconv.FormatUint(uint64(ev.PrevID), 10),
		tier,
		strconv.Itoa(ev.OldPriority),
		strconv.Itoa(ev.NewPriority),
		strconv.FormatFloat(ev.RanTicks, 'f', -1, 64),
		strconv.FormatFloat(ev.Estimate, 'f', -1, 64),
		strconv.FormatFloat(ev.NewEstimate, 'f', -1, 64),
	}
	// errors surface through Err
	_ = c.w.Write(rec)
	c.w.Flush()
}

// Err reports the first write error, if any.
func (c *CSV) Err() error { return c.w.Error() }

// Close flushes the recorder and closes the file it created.
func (c *CSV) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.f != nil {
		if cerr := c.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
