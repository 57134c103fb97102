package timeseries

import "time"

// ring is a fixed-capacity buffer of points ordered by insertion.
type ring struct {
	buf  []Point
	head int
	full bool
}

func newRing(capacity int) ring {
	if capacity < 1 {
		capacity = 1
	}
	return ring{buf: make([]Point, capacity)}
}

func (r *ring) push(p Point) {
	r.buf[r.head] = p
	r.head = (r.head + 1) % len(r.buf)
	if r.head == 0 {
		r.full = true
	}
}

func (r *ring) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.head
}

// at returns the i-th oldest point.
func (r *ring) at(i int) Point {
	start := 0
	if r.full {
		start = r.head
	}
	return r.buf[(start+i)%len(r.buf)]
}

// last returns the newest point.
func (r *ring) last() (Point, bool) {
	n := r.len()
	if n == 0 {
		return Point{}, false
	}
	return r.at(n - 1), true
}

// since returns the points at or after since, oldest first. A zero since
// selects everything newer than notBefore.
func (r *ring) since(since, notBefore time.Time) []Point {
	n := r.len()
	var out []Point
	for i := 0; i < n; i++ {
		p := r.at(i)
		if p.IsZero() {
			continue
		}
		if !since.IsZero() && p.T.Before(since) {
			continue
		}
		if since.IsZero() && p.T.Before(notBefore) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// dropBefore removes the oldest points older than cutoff and compacts the
// remaining ones to the start of the buffer. It returns the number removed.
func (r *ring) dropBefore(cutoff time.Time) int {
	n := r.len()
	drop := 0
	for drop < n && r.at(drop).T.Before(cutoff) {
		drop++
	}
	if drop == 0 {
		return 0
	}

	kept := make([]Point, 0, n-drop)
	for i := drop; i < n; i++ {
		kept = append(kept, r.at(i))
	}
	for i := range r.buf {
		r.buf[i] = Point{}
	}
	copy(r.buf, kept)
	r.head = len(kept) % len(r.buf)
	r.full = len(kept) == len(r.buf)
	return drop
}
