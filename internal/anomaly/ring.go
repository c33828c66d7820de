package anomaly

// histEntry is the slice of a health cycle the trend window needs.
type histEntry struct {
	motorThermal float64
	warning      bool
}

// ring is a fixed-capacity buffer over an arena slice. Once full, new
// entries overwrite the oldest; no reslicing, no reallocation.
type ring struct {
	buf  []histEntry
	next int
	full bool
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]histEntry, capacity)}
}

func (r *ring) push(e histEntry) {
	r.buf[r.next] = e
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *ring) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// lastN returns the most recent n entries in chronological order. Fewer
// are returned when the buffer holds fewer.
func (r *ring) lastN(n int) []histEntry {
	size := r.len()
	if n > size {
		n = size
	}
	out := make([]histEntry, n)
	start := r.next - n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}
