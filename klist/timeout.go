package klist

// TimeoutList orders its members by absolute wake time, without storing
// absolute times: each node's Offset is the delta between its own wake
// time and its predecessor's (the head's Offset is the delta from "now").
// This keeps InsertByOffset and Remove O(1) in the common case — only the
// walk in InsertByOffset to find the insertion point is O(n).
//
// Invariant: at every point between tick events, the sum of Offsets from
// the head to node N equals N's absolute remaining milliseconds.
//
// TimeoutList must not be copied after first use — InsertByOffset stamps
// nodes with a pointer to the embedded List, and a copy would leave those
// stamps pointing at the original.
type TimeoutList[T any] struct {
	list List[T]
}

// Len returns the number of sleeping nodes.
func (t *TimeoutList[T]) Len() int { return t.list.Len() }

// Head returns the earliest-waking node, or nil if nothing is sleeping.
func (t *TimeoutList[T]) Head() *Node[T] { return t.list.Head() }

// InsertByOffset inserts n so that it wakes at absoluteOffset milliseconds
// from now, preserving the delta-sum invariant for every other node.
//
// It walks from the head accumulating predecessor offsets until the
// running sum would exceed absoluteOffset, inserts before that node, and
// derives both the new node's offset and the successor's decremented
// offset from the pre-adjustment running sum, never from a value this
// same insert has already mutated.
func (t *TimeoutList[T]) InsertByOffset(n *Node[T], absoluteOffset uint32) {
	n.Offset = 0

	running := uint32(0)
	for cur := t.list.Head(); cur != nil; cur = cur.next {
		next := running + cur.Offset
		if next > absoluteOffset {
			// insert before cur: n fires (absoluteOffset - running) after
			// the previous node: cur's remaining delta shrinks by that
			// same pre-adjustment amount.
			delta := absoluteOffset - running
			successorRemaining := next - absoluteOffset
			n.Offset = delta
			t.list.InsertBefore(n, cur)
			cur.Offset = successorRemaining
			return
		}
		running = next
	}

	// reached the tail without exceeding absoluteOffset: append.
	n.Offset = absoluteOffset - running
	t.list.Append(n)
}

// Remove detaches n, folding its Offset into its successor's so that every
// remaining node's absolute wake time is unchanged. A no-op if n is not a
// member of this list.
func (t *TimeoutList[T]) Remove(n *Node[T]) {
	if n.owner != &t.list {
		return
	}
	successor := n.next
	freed := n.Offset
	t.list.Remove(n)
	if successor != nil {
		successor.Offset += freed
	}
}

// PopHead removes and returns the head node (folding its Offset forward,
// same as Remove), or nil if the list is empty.
func (t *TimeoutList[T]) PopHead() *Node[T] {
	h := t.list.Head()
	if h == nil {
		return nil
	}
	t.Remove(h)
	return h
}

// Tick decrements the head's offset by one (if positive) and returns every
// node whose offset has reached zero, removed in wake order. Called once
// per millisecond tick.
func (t *TimeoutList[T]) Tick() []*Node[T] {
	head := t.list.Head()
	if head == nil {
		return nil
	}
	if head.Offset > 0 {
		head.Offset--
	}

	var fired []*Node[T]
	for {
		head = t.list.Head()
		if head == nil || head.Offset != 0 {
			break
		}
		t.Remove(head)
		fired = append(fired, head)
	}
	return fired
}
