package stresstest

import "github.com/studiowebux/webbench/internal/types"

// Observer is notified while a run progresses.
// RunStarted and RunFinished are called from the goroutine calling Run;
// OutcomeRecorded is called from the single collector goroutine, so calls
// for one run never overlap.
type Observer interface {
	RunStarted(framework string, target types.EndpointTarget, cfg types.BenchmarkConfig)
	OutcomeRecorded(framework string, target types.EndpointTarget, outcome types.RequestOutcome)
	RunFinished(result *types.RunResult)
}

// observers fans notifications out in registration order
type observers []Observer

func (o observers) RunStarted(framework string, target types.EndpointTarget, cfg types.BenchmarkConfig) {
	for _, obs := range o {
		obs.RunStarted(framework, target, cfg)
	}
}

func (o observers) OutcomeRecorded(framework string, target types.EndpointTarget, outcome types.RequestOutcome) {
	for _, obs := range o {
		obs.OutcomeRecorded(framework, target, outcome)
	}
}

func (o observers) RunFinished(result *types.RunResult) {
	for _, obs := range o {
		obs.RunFinished(result)
	}
}
