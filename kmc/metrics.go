// Aggregates trajectory-level statistics for final reporting.

package kmc

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// TrajectorySummary aggregates statistics about a sampled trajectory,
// useful for sanity-checking a realization before training on it.
type TrajectorySummary struct {
	Events          int     // number of recorded flips (Len - 1)
	MeanHoldingTime float64 // mean waiting time between events
	MedianHolding   float64 // median waiting time between events
	MaxHoldingTime  float64 // longest waiting time between events
	ResidualTime    float64 // event-free tail up to the horizon
	MeanDensity     float64 // time-averaged fraction of excited sites
}

// Summarize computes a TrajectorySummary. Waiting-time statistics exclude
// the residual entry; a frozen single-entry trajectory reports zeros there.
func Summarize(traj *Trajectory, horizon float64) (TrajectorySummary, error) {
	if traj.Len() == 0 {
		return TrajectorySummary{}, fmt.Errorf("cannot summarize an empty trajectory")
	}

	s := TrajectorySummary{
		Events:       traj.Len() - 1,
		ResidualTime: traj.HoldingTimes[traj.Len()-1],
	}

	if s.Events > 0 {
		waits := stats.Float64Data(traj.HoldingTimes[:traj.Len()-1])
		var err error
		if s.MeanHoldingTime, err = stats.Mean(waits); err != nil {
			return TrajectorySummary{}, err
		}
		if s.MedianHolding, err = stats.Median(waits); err != nil {
			return TrajectorySummary{}, err
		}
		if s.MaxHoldingTime, err = stats.Max(waits); err != nil {
			return TrajectorySummary{}, err
		}
	}

	var weighted float64
	for j, cfg := range traj.Configs {
		var excited int
		for _, v := range cfg {
			if v != 0 {
				excited++
			}
		}
		weighted += traj.HoldingTimes[j] * float64(excited) / float64(len(cfg))
	}
	s.MeanDensity = weighted / horizon

	return s, nil
}

// Print displays the summary at the end of sampling.
func (s TrajectorySummary) Print() {
	fmt.Println("=== Trajectory Summary ===")
	fmt.Printf("Events               : %d\n", s.Events)
	fmt.Printf("Mean waiting time    : %.4f\n", s.MeanHoldingTime)
	fmt.Printf("Median waiting time  : %.4f\n", s.MedianHolding)
	fmt.Printf("Max waiting time     : %.4f\n", s.MaxHoldingTime)
	fmt.Printf("Residual time        : %.4f\n", s.ResidualTime)
	fmt.Printf("Mean density         : %.4f\n", s.MeanDensity)
}
