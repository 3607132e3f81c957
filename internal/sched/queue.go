// internal/sched/queue.go

package sched

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// readyStore holds the three ready tiers. It never owns a task; a task is
// referenced here only while it is READY.
type readyStore struct {
	l1 *redblacktree.Tree     // ordered by remaining burst, then id
	l2 *redblacktree.Tree     // ordered by priority (desc), then id
	l3 *doublylinkedlist.List // FIFO
	in map[TaskID]Tier        // current membership
	at map[TaskID]nodeKey     // tree key a sorted-tier member was stored under
}

func newReadyStore() *readyStore {
	return &readyStore{
		l1: redblacktree.NewWith(cmp),
		l2: redblacktree.NewWith(cmp),
		l3: doublylinkedlist.New(),
		in: make(map[TaskID]Tier),
		at: make(map[TaskID]nodeKey),
	}
}

// keyFor computes the ordering key of t in a sorted tier.
func keyFor(tier Tier, t *Task) nodeKey {
	if tier == L1 {
		return nodeKey{primary: t.RemainingBurstTime, id: t.ID}
	}
	// negate so the smallest key is the highest priority
	return nodeKey{primary: -float64(t.Priority), id: t.ID}
}

func (rs *readyStore) tree(tier Tier) *redblacktree.Tree {
	switch tier {
	case L1:
		return rs.l1
	case L2:
		return rs.l2
	default:
		return nil
	}
}

func (rs *readyStore) insert(tier Tier, t *Task) {
	if tier == L3 {
		rs.l3.Append(t)
	} else {
		key := keyFor(tier, t)
		rs.tree(tier).Put(key, t)
		rs.at[t.ID] = key
	}
	rs.in[t.ID] = tier
}

// removeFront pops the head of tier, or returns nil when it is empty.
func (rs *readyStore) removeFront(tier Tier) *Task {
	var t *Task
	if tier == L3 {
		v, ok := rs.l3.Get(0)
		if !ok {
			return nil
		}
		rs.l3.Remove(0)
		t = v.(*Task)
	} else {
		tree := rs.tree(tier)
		node := tree.Left()
		if node == nil {
			return nil
		}
		tree.Remove(node.Key)
		t = node.Value.(*Task)
		delete(rs.at, t.ID)
	}
	delete(rs.in, t.ID)
	return t
}

// remove takes t out of tier and reports whether it was there.
func (rs *readyStore) remove(tier Tier, t *Task) bool {
	if !rs.contains(tier, t) {
		return false
	}
	if tier == L3 {
		idx := rs.l3.IndexOf(t)
		if idx < 0 {
			return false
		}
		rs.l3.Remove(idx)
	} else {
		rs.tree(tier).Remove(rs.at[t.ID])
		delete(rs.at, t.ID)
	}
	delete(rs.in, t.ID)
	return true
}

func (rs *readyStore) contains(tier Tier, t *Task) bool {
	got, ok := rs.in[t.ID]
	return ok && got == tier
}

func (rs *readyStore) size(tier Tier) int {
	switch tier {
	case L3:
		return rs.l3.Size()
	case L1, L2:
		return rs.tree(tier).Size()
	default:
		return 0
	}
}

// members lists tier in dequeue order.
func (rs *readyStore) members(tier Tier) []*Task {
	var values []interface{}
	if tier == L3 {
		values = rs.l3.Values()
	} else {
		values = rs.tree(tier).Values()
	}
	out := make([]*Task, 0, len(values))
	for _, v := range values {
		out = append(out, v.(*Task))
	}
	return out
}

func (rs *readyStore) clear() {
	rs.l1.Clear()
	rs.l2.Clear()
	rs.l3.Clear()
	rs.in = make(map[TaskID]Tier)
	rs.at = make(map[TaskID]nodeKey)
}

// nodeKey is used as a key in the sorted tiers.
type nodeKey struct {
	primary float64
	id      TaskID
}

// cmp implements the Comparator for red-black tree ordering; ids break
// every tie so the order is total.
func cmp(a, b any) int {
	ka, kb := a.(nodeKey), b.(nodeKey)
	switch {
	case ka.primary < kb.primary:
		return -1
	case ka.primary > kb.primary:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}

// idCmp orders the task table.
func idCmp(a, b any) int {
	ia, ib := a.(TaskID), b.(TaskID)
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}
