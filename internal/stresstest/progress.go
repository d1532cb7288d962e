package stresstest

import (
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"

	"github.com/studiowebux/webbench/internal/types"
)

const progressTemplate = `{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }} {{rtime . "ETA %s"}}`

// ProgressObserver draws one progress bar per run.
// Runs are sequential, so a single bar is live at any time.
type ProgressObserver struct {
	w   io.Writer
	bar *pb.ProgressBar
}

// NewProgressObserver creates a progress observer writing to w (stderr when nil)
func NewProgressObserver(w io.Writer) *ProgressObserver {
	if w == nil {
		w = os.Stderr
	}
	return &ProgressObserver{w: w}
}

func (p *ProgressObserver) RunStarted(framework string, target types.EndpointTarget, cfg types.BenchmarkConfig) {
	bar := pb.ProgressBarTemplate(progressTemplate).New(cfg.TotalRequests)
	bar.SetWriter(p.w)
	bar.Set("prefix", fmt.Sprintf("%s %s", framework, target.Label))
	p.bar = bar.Start()
}

func (p *ProgressObserver) OutcomeRecorded(framework string, target types.EndpointTarget, outcome types.RequestOutcome) {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *ProgressObserver) RunFinished(result *types.RunResult) {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
