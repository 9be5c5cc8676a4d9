package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mitchellnkeo/CheckMyForm/internal/report"
	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

var (
	reportOut   string
	reportTitle string
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report WORKOUT_ID",
		Short: "Summarize a recorded workout and chart it as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVarP(&reportOut, "out", "o", "", "chart file (default: <workout id>.png, - to skip)")
	cmd.Flags().StringVar(&reportTitle, "title", "", "chart title")
	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	return writeReport(cmd.OutOrStdout(), st, args[0], reportOut, reportTitle)
}

// writeReport prints a workout's statistics and renders its chart to out
// unless out is "-".
func writeReport(w io.Writer, st *store.Store, id, out, title string) error {
	workout, err := st.Workouts().GetByID(id)
	if err != nil {
		return fmt.Errorf("workout %s: %w", id, err)
	}
	samples, err := st.Samples().ListByWorkout(id)
	if err != nil {
		return err
	}
	events, err := st.Reps().ListByWorkout(id)
	if err != nil {
		return err
	}

	stats := report.Summarize(samples, events)
	fmt.Fprintf(w, "Workout %s: %s, %s\n", workout.ID, workout.Profile, workout.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Reps %d (+%d partial), form %.0f (min %.0f)\n", stats.Reps, stats.HalfReps, stats.MeanScore, stats.MinScore)
	if stats.Reps > 0 {
		fmt.Fprintf(w, "Depth %.0f° ± %.1f, %s per rep\n", stats.MeanDepth, stats.DepthStdDev, roundSec(stats.MeanRep))
	}
	if workout.BestHold > 0 {
		fmt.Fprintf(w, "Best hold %s\n", roundSec(workout.BestHold))
	}
	if stats.TopFeedback != "" {
		fmt.Fprintf(w, "Most frequent correction: %s\n", stats.TopFeedback)
	}

	if out == "-" {
		return nil
	}
	if out == "" {
		out = workout.ID + ".png"
	}
	if title == "" {
		title = fmt.Sprintf("%s, %s", workout.Profile, workout.StartedAt.Local().Format(time.DateTime))
	}
	if err := report.Render(title, samples, events, out); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	fmt.Fprintf(w, "Chart written to %s\n", out)
	return nil
}

func newWorkoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workouts",
		Short: "List recorded workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)

			workouts, err := st.Workouts().List()
			if err != nil {
				return err
			}
			return printWorkouts(cmd.OutOrStdout(), workouts)
		},
	}
}

func printWorkouts(w io.Writer, workouts []*store.Workout) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROFILE\tSTARTED\tREPS\tPARTIAL\tFORM")
	for _, wk := range workouts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.0f\n", wk.ID, wk.Profile,
			wk.StartedAt.Local().Format(time.DateTime), wk.Reps, wk.HalfReps, wk.AvgScore)
	}
	return tw.Flush()
}
