// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package cache

// lruNode is a node in the recency list.
type lruNode struct {
	key   string
	entry Entry
	prev  *lruNode
	next  *lruNode
}

// lruList is a doubly-linked recency list with sentinel nodes.
// head.next is the most recently used, tail.prev the least.
// It is not safe for concurrent use; FeedCache holds the lock.
type lruList struct {
	items map[string]*lruNode
	head  *lruNode
	tail  *lruNode
}

func newLRUList(capacity int) *lruList {
	l := &lruList{
		items: make(map[string]*lruNode, capacity),
		head:  &lruNode{},
		tail:  &lruNode{},
	}
	l.head.next = l.tail
	l.tail.prev = l.head
	return l
}

func (l *lruList) len() int {
	return len(l.items)
}

func (l *lruList) get(key string) (*lruNode, bool) {
	n, ok := l.items[key]
	return n, ok
}

// put inserts or replaces key and marks it most recently used.
func (l *lruList) put(key string, e Entry) {
	if n, ok := l.items[key]; ok {
		n.entry = e
		l.moveToFront(n)
		return
	}
	n := &lruNode{key: key, entry: e}
	l.addToFront(n)
	l.items[key] = n
}

func (l *lruList) remove(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	delete(l.items, n.key)
}

// oldest returns the least recently used node, or nil when empty.
func (l *lruList) oldest() *lruNode {
	if l.tail.prev == l.head {
		return nil
	}
	return l.tail.prev
}

func (l *lruList) addToFront(n *lruNode) {
	n.prev = l.head
	n.next = l.head.next
	l.head.next.prev = n
	l.head.next = n
}

func (l *lruList) moveToFront(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	l.addToFront(n)
}

// each walks from least to most recently used. fn may remove the node it is
// given.
func (l *lruList) each(fn func(n *lruNode)) {
	for n := l.tail.prev; n != l.head; {
		prev := n.prev
		fn(n)
		n = prev
	}
}
