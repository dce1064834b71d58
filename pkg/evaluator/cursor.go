package evaluator

// WindowCursor is the position of the next window. It is a value owned by the
// caller and threaded through each tick; nothing else holds it.
type WindowCursor struct {
	Index int
}

// Advance returns the bounds [start, end) of the next window and the cursor
// for the tick after it. A cursor at or past the end wraps to 0.
func (c WindowCursor) Advance(datasetLen, windowSize int) (start, end int, next WindowCursor) {
	start = c.Index
	if start >= datasetLen || start < 0 {
		start = 0
	}
	end = min(start+windowSize, datasetLen)
	return start, end, WindowCursor{Index: end}
}
