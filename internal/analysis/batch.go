package analysis

import (
	"context"
	"log"
	"runtime"
	"sync"

	"github.com/eplancompare/eplancompare/internal/plans"
	"github.com/eplancompare/eplancompare/internal/readings"
	"github.com/eplancompare/eplancompare/internal/tariff"
)

// Observer receives per-plan outcomes during a batch run. Implementations
// must be safe for concurrent use.
type Observer interface {
	PlanEvaluated(result PlanCostResult)
	PlanSkipped(err *SimulationError)
}

type nopObserver struct{}

func (nopObserver) PlanEvaluated(PlanCostResult) {}
func (nopObserver) PlanSkipped(*SimulationError) {}

// BatchResult is the aggregate outcome of simulating a set of plans against
// one consumption series. Results come back ranked, best savings first.
type BatchResult struct {
	Results      []PlanCostResult `json:"results"`
	TotalPlans   int              `json:"total_plans"`
	ValidPlans   int              `json:"valid_plans"`
	InvalidPlans int              `json:"invalid_plans"`
	Skipped      []string         `json:"skipped,omitempty"`
}

// RunBatch simulates every plan concurrently and ranks the outcomes. A plan
// that fails simulation is skipped and counted; the rest of the batch is
// unaffected. Output order does not depend on scheduling.
func RunBatch(ctx context.Context, ps []plans.DiscountPlan, rs []readings.Reading, t tariff.Tariff, obs Observer) (BatchResult, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	workers := runtime.NumCPU()
	if workers > len(ps) {
		workers = len(ps)
	}
	if workers < 1 {
		workers = 1
	}

	type slot struct {
		result PlanCostResult
		err    *SimulationError
	}
	slots := make([]slot, len(ps))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, err := ApplyPlan(ps[i], rs, t)
				if err != nil {
					simErr, ok := err.(*SimulationError)
					if !ok {
						simErr = &SimulationError{Provider: ps[i].Provider, PlanName: ps[i].Name, Reason: err}
					}
					slots[i] = slot{err: simErr}
					obs.PlanSkipped(simErr)
					continue
				}
				slots[i] = slot{result: result}
				obs.PlanEvaluated(result)
			}
		}()
	}

feed:
	for i := range ps {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{TotalPlans: len(ps)}
	for _, s := range slots {
		if s.err != nil {
			log.Printf("analysis: skipping plan: %v", s.err)
			out.InvalidPlans++
			out.Skipped = append(out.Skipped, s.err.Error())
			continue
		}
		out.ValidPlans++
		out.Results = append(out.Results, s.result)
	}

	Rank(out.Results)
	return out, nil
}
