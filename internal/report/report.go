// Package report renders allocation plans and simulation summaries for the console.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/yourusername/paddock/internal/models"
)

// WritePlan prints the plan summary, the per-race allocation and every staked bet
func WritePlan(w io.Writer, plan *models.AllocationPlan) error {
	fmt.Fprintf(w, "Allocation plan %s for %s\n", plan.PlanID, plan.Date.Format("2006-01-02"))
	fmt.Fprintf(w, "Outcome:     %s\n", plan.Outcome)
	fmt.Fprintf(w, "Budget:      %.2f (unit %.2f)\n", plan.TotalBudget, plan.MinBetUnit)
	fmt.Fprintf(w, "Allocated:   %.2f\n", plan.Allocated)
	fmt.Fprintf(w, "Unallocated: %.2f\n\n", plan.Unallocated)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RACE\tSCORE\tCANDIDATES\tAMOUNT\t")
	for _, s := range sortedScores(plan.Scores) {
		fmt.Fprintf(tw, "%s\t%.6f\t%d\t%.2f\t\n", s.RaceID, s.Score, s.Candidates, plan.Allocations[s.RaceID])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(plan.Bets) == 0 {
		_, err := fmt.Fprintln(w, "\nNo bets placed.")
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RACE\tMARKET\tSELECTION\tPROB\tODDS\tEV\tKELLY\tSTAKE\t")
	for _, bet := range plan.Bets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%.2f\t%.4f\t%.4f\t%.2f\t\n",
			bet.RaceID, bet.Market, bet.Selection, bet.Probability, bet.Odds,
			bet.ExpectedValue, bet.KellyFraction, bet.Stake)
	}
	return tw.Flush()
}

// WriteRecords prints one line per simulation record with its favourite
func WriteRecords(w io.Writer, records []*models.SimulationRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RACE\tSIM ID\tTRIALS\tRUNNERS\tFAVOURITE\tWIN PROB")
	for _, r := range records {
		favourite, p := r.Favourite()
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.4f\n", r.RaceID, r.SimID, r.K, len(r.WinProbs), favourite, p)
	}
	return tw.Flush()
}

func sortedScores(scores []models.RaceScore) []models.RaceScore {
	out := append([]models.RaceScore(nil), scores...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RaceID < out[j].RaceID })
	return out
}
