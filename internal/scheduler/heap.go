package scheduler

import "sort"

// jobItem is a heap entry; index is maintained by jobHeap for heap.Remove.
type jobItem struct {
	job   Job
	key   string
	index int
}

// jobHeap orders jobs by FireAt, then TaskID.
type jobHeap []*jobItem

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	a, b := h[i].job, h[j].job
	if a.FireAt.Equal(b.FireAt) {
		return a.TaskID < b.TaskID
	}
	return a.FireAt.Before(b.FireAt)
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x any) {
	item := x.(*jobItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// sortJobs orders jobs the way the heap does.
func sortJobs(jobs []Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].FireAt.Equal(jobs[j].FireAt) {
			return jobs[i].TaskID < jobs[j].TaskID
		}
		return jobs[i].FireAt.Before(jobs[j].FireAt)
	})
}
