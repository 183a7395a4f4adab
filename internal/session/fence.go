package session

// Fence issues request sequences and decides whether a response still
// matters. Only the store loop touches it.
type Fence struct {
	latest uint64
}

// Next returns a new sequence, strictly greater than every previous one. The
// first call returns 1.
func (f *Fence) Next() uint64 {
	f.latest++
	return f.latest
}

// IsCurrent reports whether seq belongs to the most recently issued request.
func (f *Fence) IsCurrent(seq uint64) bool {
	return seq != 0 && seq == f.latest
}

// Latest returns the last issued sequence, 0 before the first request.
func (f *Fence) Latest() uint64 {
	return f.latest
}
