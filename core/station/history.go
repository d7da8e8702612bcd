package station

// History is a fixed-capacity FIFO of battery samples. When full, appending
// evicts the oldest sample.
type History struct {
	buf   []int
	start int
	n     int
}

// NewHistory returns an empty history holding at most size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{buf: make([]int, size)}
}

// Append adds a sample, evicting the oldest one when at capacity.
func (h *History) Append(v int) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

// Fill replaces the content with size copies of v.
func (h *History) Fill(v int) {
	for i := range h.buf {
		h.buf[i] = v
	}
	h.start = 0
	h.n = len(h.buf)
}

// Len returns the number of stored samples.
func (h *History) Len() int { return h.n }

// Cap returns the capacity.
func (h *History) Cap() int { return len(h.buf) }

// Values returns the samples, oldest first.
func (h *History) Values() []int {
	out := make([]int, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}
