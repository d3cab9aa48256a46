package indicator

import "math"

// ring is a fixed-size FIFO of float64 samples with O(1) mean updates.
type ring struct {
	data []float64
	head int
	size int
	sum  float64
}

func newRing(capacity int) *ring {
	return &ring{data: make([]float64, capacity)}
}

func (r *ring) push(v float64) {
	if r.size == len(r.data) {
		r.sum -= r.data[r.head]
		r.data[r.head] = v
		r.head = (r.head + 1) % len(r.data)
	} else {
		r.data[(r.head+r.size)%len(r.data)] = v
		r.size++
	}
	r.sum += v
}

func (r *ring) full() bool { return r.size == len(r.data) }

func (r *ring) mean() float64 {
	if r.size == 0 {
		return 0
	}
	return r.sum / float64(r.size)
}

// std returns the sample standard deviation of the buffered values.
func (r *ring) std() float64 {
	if r.size < 2 {
		return 0
	}
	m := r.mean()
	var ss float64
	for i := 0; i < r.size; i++ {
		d := r.data[(r.head+i)%len(r.data)] - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(r.size-1))
}

// at returns the i-th oldest buffered value.
func (r *ring) at(i int) float64 {
	return r.data[(r.head+i)%len(r.data)]
}

// oldest returns the least recent buffered value.
func (r *ring) oldest() float64 { return r.at(0) }
