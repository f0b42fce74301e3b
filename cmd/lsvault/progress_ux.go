package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"losslessvault/internal/progress"
)

// barObserver renders one progress bar per engine phase. Source-level scan
// events are skipped because the hash phase reports per-file progress.
type barObserver struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// progressBuffer bounds how far the bar may lag behind the engine.
const progressBuffer = 256

// withProgress runs fn with a progress bar on out. When out is not a terminal
// fn gets a nil observer so piped output stays clean.
func withProgress[T any](out io.Writer, fn func(progress.Observer) (T, error)) (T, error) {
	if !isTerminal(out) {
		return fn(nil)
	}
	return pumpProgress(&barObserver{out: out}, fn)
}

// pumpProgress feeds sink from a separate goroutine so a slow terminal never
// holds up engine workers. It returns once sink has seen every delivered
// event.
func pumpProgress[T any](sink progress.Observer, fn func(progress.Observer) (T, error)) (T, error) {
	ch := progress.NewChannel(progressBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch.Events() {
			sink.Observe(e)
		}
		if bar, ok := sink.(*barObserver); ok {
			bar.finish()
		}
	}()
	result, err := fn(ch)
	ch.Close()
	<-done
	return result, err
}

func (o *barObserver) Observe(e progress.Event) {
	if e.Phase == progress.PhaseScan {
		return
	}
	switch e.Kind {
	case progress.KindStart:
		o.finish()
		total := e.Total
		if e.Phase == progress.PhaseGroup {
			total = -1
		}
		o.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(o.out),
			progressbar.OptionSetDescription(phaseLabel(e.Phase)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	case progress.KindItem:
		if o.bar != nil && e.Phase != progress.PhaseGroup {
			_ = o.bar.Add(1)
		}
	case progress.KindComplete:
		o.finish()
	}
}

func (o *barObserver) finish() {
	if o.bar == nil {
		return
	}
	_ = o.bar.Finish()
	o.bar = nil
}

func phaseLabel(phase progress.Phase) string {
	switch phase {
	case progress.PhaseHash:
		return "Hashing"
	case progress.PhaseGroup:
		return "Grouping"
	case progress.PhaseSave:
		return "Saving to vault"
	case progress.PhaseExport:
		return "Converting to HEIC"
	default:
		return string(phase)
	}
}
