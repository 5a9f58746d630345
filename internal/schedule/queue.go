package schedule

import "container/heap"

// Queue is a node's priority queue of live schedules, ordered by the time of
// each schedule's next event with insertion order breaking ties. The driver
// pops the earliest schedule, processes its top event, and re-inserts it
// under its new key.
//
// The queue is not safe for concurrent use; a simulation drains its queues
// strictly sequentially.
type Queue struct {
	schedules []*Schedule
	nextSeq   uint64
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	q := &Queue{
		schedules: make([]*Schedule, 0),
	}
	heap.Init(q)
	return q
}

// Len returns the number of schedules in the queue
func (q *Queue) Len() int {
	return len(q.schedules)
}

// Less orders schedules by next-event time, then by insertion order
func (q *Queue) Less(i, j int) bool {
	ti, tj := q.schedules[i].TopTime(), q.schedules[j].TopTime()
	if ti != tj {
		return ti < tj
	}
	return q.schedules[i].seq < q.schedules[j].seq
}

// Swap swaps two schedules in the queue
func (q *Queue) Swap(i, j int) {
	q.schedules[i], q.schedules[j] = q.schedules[j], q.schedules[i]
}

// Push adds a schedule (heap.Interface; use Insert)
func (q *Queue) Push(x interface{}) {
	q.schedules = append(q.schedules, x.(*Schedule))
}

// Pop removes the last schedule (heap.Interface; use PopMin)
func (q *Queue) Pop() interface{} {
	old := q.schedules
	n := len(old)
	s := old[n-1]
	old[n-1] = nil // avoid memory leak
	q.schedules = old[:n-1]
	return s
}

// Insert adds a schedule to the queue under its current top-event time
func (q *Queue) Insert(s *Schedule) {
	s.seq = q.nextSeq
	q.nextSeq++
	heap.Push(q, s)
}

// PopMin removes and returns the schedule with the earliest next event
func (q *Queue) PopMin() *Schedule {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*Schedule)
}

// Peek returns the schedule with the earliest next event without removing it
func (q *Queue) Peek() *Schedule {
	if q.Len() == 0 {
		return nil
	}
	return q.schedules[0]
}

// Items exposes the queued schedules in heap order. Callers may flip
// cancellation flags or restratify schedules through the slice; neither
// changes a schedule's next-event time, so the heap stays valid.
func (q *Queue) Items() []*Schedule {
	return q.schedules
}

// Clear removes all schedules from the queue
func (q *Queue) Clear() {
	q.schedules = make([]*Schedule, 0)
	heap.Init(q)
}
