package validation

// Progress receives fractional completion updates in the range 0–100.
type Progress interface {
	Report(percent float64)
}

// ProgressFunc adapts a function to the Progress interface.
type ProgressFunc func(percent float64)

// Report implements Progress.
func (f ProgressFunc) Report(percent float64) { f(percent) }

// Noop discards all progress updates.
var Noop Progress = ProgressFunc(func(float64) {})

// scaled maps a phase-local 0–100 range onto the [from, to] segment of the
// caller's overall progress.
func scaled(p Progress, from, to float64) Progress {
	return ProgressFunc(func(percent float64) {
		p.Report(from + percent*(to-from)/100)
	})
}
