package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"captioner/internal/pipeline"
)

// progressView renders orchestrator progress events. On a terminal it draws
// an mpb bar; elsewhere it prints one line per checkpoint.
type progressView struct {
	out io.Writer

	mu      sync.Mutex
	message string
	bar     *mpb.Bar
	pool    *mpb.Progress
	lines   bool
}

func newProgressView(out io.Writer, interactive, quiet bool) *progressView {
	view := &progressView{out: out, lines: !interactive && !quiet}
	if !interactive || quiet {
		return view
	}
	view.pool = mpb.New(mpb.WithOutput(out), mpb.WithRefreshRate(120*time.Millisecond))
	view.bar = view.pool.AddBar(100,
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string { return view.currentMessage() }, decor.WC{W: 24, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(decor.Percentage(decor.WCSyncSpace)),
	)
	return view
}

func (v *progressView) currentMessage() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// update is passed to pipeline.WithProgress.
func (v *progressView) update(p pipeline.Progress) {
	v.mu.Lock()
	v.message = p.Message
	v.mu.Unlock()

	if v.bar != nil {
		v.bar.SetCurrent(int64(p.Percent))
		return
	}
	if v.lines {
		fmt.Fprintln(v.out, formatProgressLine(p))
	}
}

// finish completes or aborts the bar and waits for the final render.
func (v *progressView) finish(run pipeline.Run) {
	if v.bar == nil {
		return
	}
	if run.State == pipeline.StateDone {
		v.bar.SetCurrent(100)
	} else {
		v.bar.Abort(false)
	}
	v.pool.Wait()
}

func formatProgressLine(p pipeline.Progress) string {
	return fmt.Sprintf("[%3d%%] %s", p.Percent, p.Message)
}
