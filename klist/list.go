// Package klist implements the two intrusive list shapes the kernel needs:
// a plain doubly-linked head/tail list with O(1) insert/remove, and a
// delta-offset timeout list built on the same node shape, where each
// node's Offset is the time remaining after its predecessor fires.
//
// Both are intrusive: the Node lives inside the owning value (a thread
// control block) rather than wrapping it, so membership changes never
// allocate.
package klist

// Node is one link in an intrusive doubly-linked list. It is meant to be
// embedded by value in whatever type the list holds (see kthread.TCB).
// A Node belongs to at most one List at a time: a TCB sits on exactly one
// of {active, expired, pool, timeout} or none.
type Node[T any] struct {
	prev, next *Node[T]
	owner      *List[T]
	// Offset is the delta-timeout field used only by timeout lists
	// (TimeoutList.InsertByOffset/Remove in timeout.go); plain List
	// operations ignore it.
	Offset uint32
	// Value is the payload carried by this node.
	Value T
}

// Linked reports whether the node is currently a member of some list.
func (n *Node[T]) Linked() bool { return n.owner != nil }

// List is a head/tail intrusive doubly-linked list of Node[T].
// The zero value is ready to use.
type List[T any] struct {
	head, tail *Node[T]
	length     int
}

// Len returns the number of nodes currently in the list.
func (l *List[T]) Len() int { return l.length }

// Head returns the first node, or nil if the list is empty.
func (l *List[T]) Head() *Node[T] { return l.head }

// Tail returns the last node, or nil if the list is empty.
func (l *List[T]) Tail() *Node[T] { return l.tail }

// Prepend inserts n at the head of the list. n must not already be linked
// to any list.
func (l *List[T]) Prepend(n *Node[T]) {
	l.mustBeUnlinked(n)
	n.owner = l
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.length++
}

// Append inserts n at the tail of the list. n must not already be linked
// to any list.
func (l *List[T]) Append(n *Node[T]) {
	l.mustBeUnlinked(n)
	n.owner = l
	n.next = nil
	n.prev = l.tail
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.length++
}

// InsertBefore inserts n immediately before the existing member before.
// n must not already be linked; before must already be a member of l.
func (l *List[T]) InsertBefore(n, before *Node[T]) {
	l.mustBeUnlinked(n)
	if before == nil {
		l.Append(n)
		return
	}
	n.owner = l
	n.next = before
	n.prev = before.prev
	if before.prev != nil {
		before.prev.next = n
	} else {
		l.head = n
	}
	before.prev = n
	l.length++
}

// Remove detaches n from the list. It is a no-op if n is not a member of
// any list; removing something not present never panics.
func (l *List[T]) Remove(n *Node[T]) {
	if n.owner != l {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next, n.owner = nil, nil, nil
	l.length--
}

// PopHead removes and returns the head node, or nil if the list is empty.
func (l *List[T]) PopHead() *Node[T] {
	h := l.head
	if h == nil {
		return nil
	}
	l.Remove(h)
	return h
}

func (l *List[T]) mustBeUnlinked(n *Node[T]) {
	if n.owner != nil {
		panic("klist: node is already linked to a list")
	}
}

// Each walks the list head-to-tail, calling fn for every node. fn must not
// mutate list membership during the walk.
func (l *List[T]) Each(fn func(*Node[T])) {
	for n := l.head; n != nil; n = n.next {
		fn(n)
	}
}
