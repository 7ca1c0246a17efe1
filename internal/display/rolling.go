package display

import "sync"

// RollingAverage is the mean of the most recent samples in a fixed-size
// ring. Before the ring fills only the samples seen so far count.
type RollingAverage struct {
	mu    sync.Mutex
	data  []float64
	count int
}

func NewRollingAverage(width int) *RollingAverage {
	if width < 1 {
		width = 1
	}
	return &RollingAverage{data: make([]float64, width)}
}

func (r *RollingAverage) AddSample(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[r.count%len(r.data)] = v
	r.count++
}

func (r *RollingAverage) Average() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := min(r.count, len(r.data))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.data[:n] {
		sum += v
	}
	return sum / float64(n)
}
