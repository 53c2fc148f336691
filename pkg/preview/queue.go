package preview

// queued is one pending background render. The sequence number keeps
// ordering stable among equal priorities.
type queued struct {
	req Request
	seq uint64
}

// renderQueue is a max-heap over priority with FIFO tie-break.
type renderQueue []*queued

func (q renderQueue) Len() int { return len(q) }

func (q renderQueue) Less(i, j int) bool {
	if q[i].req.Priority != q[j].req.Priority {
		return q[i].req.Priority > q[j].req.Priority
	}
	return q[i].seq < q[j].seq
}

func (q renderQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *renderQueue) Push(x any) { *q = append(*q, x.(*queued)) }

func (q *renderQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
