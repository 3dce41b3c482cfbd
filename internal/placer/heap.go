package placer

// byTopEdge is a container/heap slice ordered ascending by top edge
// (y - height), ties broken by insertion order (spec.md §4.4 step 7, open
// question on tie ordering).
type byTopEdge []*candidate

func (h byTopEdge) Len() int { return len(h) }
func (h byTopEdge) Less(i, j int) bool {
	a, b := h[i].topEdge(), h[j].topEdge()
	if a != b {
		return a < b
	}
	return h[i].seq < h[j].seq
}
func (h byTopEdge) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *byTopEdge) Push(x any)   { *h = append(*h, x.(*candidate)) }
func (h *byTopEdge) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

// byBottomEdge is a container/heap slice ordered ascending by bottom edge
// (y), ties broken by insertion order.
type byBottomEdge []*candidate

func (h byBottomEdge) Len() int { return len(h) }
func (h byBottomEdge) Less(i, j int) bool {
	a, b := h[i].ref.Y, h[j].ref.Y
	if a != b {
		return a < b
	}
	return h[i].seq < h[j].seq
}
func (h byBottomEdge) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *byBottomEdge) Push(x any)   { *h = append(*h, x.(*candidate)) }
func (h *byBottomEdge) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}
