package sched

// sleepQueue is a min-heap of sleeping threads ordered by wake time,
// so the scheduler only ever has to look at the front to decide which
// sleepers (if any) have become runnable.
type sleepQueue []*Thread

func (q sleepQueue) Len() int            { return len(q) }
func (q sleepQueue) Less(i, j int) bool  { return q[i].SleepUntil < q[j].SleepUntil }
func (q sleepQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *sleepQueue) Push(x interface{}) { *q = append(*q, x.(*Thread)) }

func (q *sleepQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
