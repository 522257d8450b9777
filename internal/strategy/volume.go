package strategy

// volumeTracker keeps an approximate rolling average of bar volume.
//
// It is not a true sliding window: once more than window samples have been
// seen, the average is taken, the running sum is rebuilt as window-1 copies of
// that average plus the newest sample, and the count is pinned at window.
// Older samples therefore decay instead of dropping out.
type volumeTracker struct {
	window int
	sum    float64
	n      int
	avg    float64
}

func newVolumeTracker(window int) *volumeTracker {
	return &volumeTracker{window: window}
}

func (v *volumeTracker) add(volume float64) {
	v.sum += volume
	v.n++
	if v.n > v.window {
		v.avg = v.sum / float64(v.n)
		v.sum = v.avg*float64(v.window-1) + volume
		v.n = v.window
	}
}

// average is zero until more than window samples have been added.
func (v *volumeTracker) average() float64 { return v.avg }

// spike reports volume above mult times the current average.
func (v *volumeTracker) spike(volume, mult float64) bool {
	return v.avg > 0 && volume > mult*v.avg
}
