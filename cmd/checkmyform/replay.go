package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/recording"
	"github.com/mitchellnkeo/CheckMyForm/internal/rep"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

var (
	replayProfile  string
	replayDetector string
	replayMinConf  float64
	replaySave     bool
	replayVerbose  bool
	replayJSON     bool
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Score a recorded keypoint session (JSON lines, - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	cmd.Flags().StringVar(&replayProfile, "profile", defaultProfile, "exercise profile")
	cmd.Flags().StringVar(&replayDetector, "detector", pose.DetectorCOCO17, "keypoint layout of the recording")
	cmd.Flags().Float64Var(&replayMinConf, "min-confidence", defaultMinConf, "keypoint confidence gate (0 keeps the default)")
	cmd.Flags().BoolVar(&replaySave, "save", false, "record the workout in the database")
	cmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "print every frame")
	cmd.Flags().BoolVar(&replayJSON, "json", false, "print updates as JSON lines")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "profile", &replayProfile, fileCfg.Profiles.Default)
	applyFloatConfig(cmd, "min-confidence", &replayMinConf, fileCfg.Detector.MinConfidence)
	if err := checkMinConfidence(replayMinConf); err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		replaySave = true
	}

	in := io.Reader(os.Stdin)
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open recording: %w", err)
		}
		defer f.Close()
		in = f
	}

	var st *store.Store
	if replaySave {
		if st, err = openStore(); err != nil {
			return err
		}
		defer closeStore(st)
	}

	reg, err := loadRegistry(st)
	if err != nil {
		return err
	}
	prof, err := reg.Get(replayProfile)
	if err != nil {
		return err
	}
	mapping, err := pose.MappingFor(replayDetector)
	if err != nil {
		return err
	}
	s, err := session.New(uuid.NewString(), prof, mapping)
	if err != nil {
		return err
	}
	if replayMinConf != 0 {
		if err := s.SetConfidenceThreshold(replayMinConf); err != nil {
			return err
		}
	}

	r := &replayer{
		session: s,
		store:   st,
		out:     cmd.OutOrStdout(),
		verbose: replayVerbose,
		json:    replayJSON,
	}
	sum, err := r.run(recording.NewReader(in))
	if err != nil {
		return err
	}
	if !replayJSON {
		printSummary(cmd.OutOrStdout(), sum)
		if r.workout != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved workout %s\n", r.workout.ID)
		}
	}
	return nil
}

// replayer feeds a recording through a session, printing progress and
// optionally recording the workout.
type replayer struct {
	session *session.Session
	store   *store.Store
	out     io.Writer
	verbose bool
	json    bool

	recorder *store.Recorder
	workout  *store.Workout
	feedback string
}

func (r *replayer) run(frames *recording.Reader) (session.Summary, error) {
	enc := json.NewEncoder(r.out)
	for {
		f, err := frames.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return r.session.Summary(), err
		}

		if r.store != nil && r.recorder == nil {
			if r.recorder, err = r.store.NewRecorder(r.session.Summary(), f.At); err != nil {
				return r.session.Summary(), err
			}
		}

		u := r.session.Submit(f)
		if r.recorder != nil {
			if err := r.recorder.Record(u); err != nil {
				return r.session.Summary(), err
			}
		}

		if r.json {
			if err := enc.Encode(u); err != nil {
				return r.session.Summary(), err
			}
			continue
		}
		r.print(u)
	}

	sum := r.session.Summary()
	if r.recorder != nil {
		w, err := r.recorder.Finish(sum)
		if err != nil {
			return sum, err
		}
		r.workout = w
	}
	return sum, nil
}

func (r *replayer) print(u session.Update) {
	elapsed := u.At.Sub(r.session.Summary().StartedAt).Seconds()

	if r.verbose {
		line := fmt.Sprintf("%7.2fs  %-10s", elapsed, u.Phase)
		if u.PrimaryAngle != nil {
			line += fmt.Sprintf("  angle %5.1f", *u.PrimaryAngle)
		}
		if u.Form != nil {
			line += fmt.Sprintf("  form %3.0f  %s", u.Form.Score, u.Form.Feedback.Message)
		} else if u.Err != nil {
			line += "  " + u.Err.Error()
		}
		fmt.Fprintln(r.out, line)
	} else if u.Form != nil && !u.Form.Feedback.Positive && u.Form.Feedback.Message != r.feedback {
		fmt.Fprintf(r.out, "%7.2fs  %s\n", elapsed, u.Form.Feedback.Message)
	}
	if u.Form != nil {
		r.feedback = u.Form.Feedback.Message
	}

	if ev := u.Event; ev != nil {
		fmt.Fprintf(r.out, "%7.2fs  %s\n", elapsed, eventLine(*ev))
	}
}

func eventLine(ev rep.Event) string {
	label := fmt.Sprintf("rep %d", ev.Count)
	if ev.Kind == rep.Half {
		label = fmt.Sprintf("partial %d", ev.Count)
	}
	return fmt.Sprintf("%s: depth %.0f°, down %s, bottom %s, up %s", label, ev.Depth,
		roundSec(ev.Durations.Descent), roundSec(ev.Durations.Bottom), roundSec(ev.Durations.Ascent))
}

func roundSec(d time.Duration) time.Duration {
	return d.Round(100 * time.Millisecond)
}

func printSummary(w io.Writer, sum session.Summary) {
	fmt.Fprintf(w, "%s: %d reps", sum.Profile, sum.Reps)
	if sum.HalfReps > 0 {
		fmt.Fprintf(w, " (+%d partial)", sum.HalfReps)
	}
	fmt.Fprintf(w, ", average form %.0f", sum.AvgScore)
	if sum.BestHold > 0 {
		fmt.Fprintf(w, ", best hold %s", roundSec(sum.BestHold))
	}
	fmt.Fprintf(w, "\n%d frames, %d with a pose\n", sum.Frames, sum.PoseFrames)
}
