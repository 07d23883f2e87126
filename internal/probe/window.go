package probe

// Window limits the number of probes without a response
type Window struct {
	available int
	size      int
}

func NewWindow(size int) *Window {
	return &Window{available: size, size: size}
}

func (w *Window) Available() int { return w.available }

func (w *Window) Size() int { return w.size }

// Take claims a slot, reporting false when none is free
func (w *Window) Take() bool {
	if w.available <= 0 {
		return false
	}
	w.available--
	return true
}

// Release returns a slot, never growing past the window size
func (w *Window) Release() {
	if w.available < w.size {
		w.available++
	}
}
