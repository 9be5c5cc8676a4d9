// Package session wires the pose model, form engine and rep counter into
// one explicit object per workout.
package session

import (
	"errors"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/form"
	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/rep"
)

// MaxHoldGap is the longest pause in good form that does not end a hold.
const MaxHoldGap = time.Second

// ErrNoPose is reported in an Update when the frame held no usable pose.
var ErrNoPose = errors.New("no pose in frame")

// Frame is one detector output.
type Frame struct {
	Keypoints []pose.RawKeypoint `json:"keypoints"`
	At        time.Time          `json:"at"`
}

// Update is the result of submitting one frame.
type Update struct {
	SessionID string       `json:"session_id"`
	At        time.Time    `json:"at"`
	Pose      *pose.Pose   `json:"pose,omitempty"`
	Form      *form.Result `json:"form,omitempty"`
	// Err explains why Form is nil.
	Err   error      `json:"-"`
	Error string     `json:"error,omitempty"`
	Event *rep.Event `json:"event,omitempty"`

	Phase        rep.Phase     `json:"phase"`
	Reps         int           `json:"reps"`
	HalfReps     int           `json:"half_reps"`
	PrimaryAngle *float64      `json:"primary_angle,omitempty"`
	Hold         time.Duration `json:"hold"`
}

// Summary describes a session so far.
type Summary struct {
	ID         string        `json:"id"`
	Profile    string        `json:"profile"`
	Detector   string        `json:"detector"`
	StartedAt  time.Time     `json:"started_at"`
	LastAt     time.Time     `json:"last_at"`
	Frames     int           `json:"frames"`
	PoseFrames int           `json:"pose_frames"`
	Reps       int           `json:"reps"`
	HalfReps   int           `json:"half_reps"`
	AvgScore   float64       `json:"avg_score"`
	BestHold   time.Duration `json:"best_hold"`
	Events     []rep.Event   `json:"events"`
}

// Session is the state of one workout. It is not safe for concurrent use;
// Manager serializes access when sessions are shared.
type Session struct {
	id        string
	profile   *profile.Profile
	mapping   pose.SourceMapping
	threshold float64
	counter   *rep.Counter

	startedAt  time.Time
	lastAt     time.Time
	frames     int
	poseFrames int
	scoreSum   float64
	scored     int
	events     []rep.Event

	hold     time.Duration
	bestHold time.Duration
	lastGood time.Time
	prevGood bool

	// lowest is the deepest pose of the descent in progress.
	lowest      *pose.Pose
	lowestAngle float64
}

// New starts a session for prof reading detector output through mapping.
// The profile is validated here so a bad profile never reaches scoring.
func New(id string, prof *profile.Profile, mapping pose.SourceMapping) (*Session, error) {
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		id:        id,
		profile:   prof,
		mapping:   mapping,
		threshold: pose.DefaultConfidenceThreshold,
		counter:   rep.NewCounter(prof.Reps, prof.Primary.Evaluate),
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Profile returns the exercise profile.
func (s *Session) Profile() *profile.Profile {
	return s.profile
}

// SetConfidenceThreshold overrides the keypoint confidence gate.
func (s *Session) SetConfidenceThreshold(t float64) error {
	if err := pose.ValidateThreshold(t); err != nil {
		return err
	}
	s.threshold = t
	return nil
}

// Submit processes one frame. It never fails: a missing pose or an
// unscorable one is reported through Update.Err.
func (s *Session) Submit(f Frame) Update {
	if s.startedAt.IsZero() {
		s.startedAt = f.At
	}
	if f.At.After(s.lastAt) {
		s.lastAt = f.At
	}
	s.frames++

	u := Update{SessionID: s.id, At: f.At}

	p, ok := pose.NormalizeWithThreshold(f.Keypoints, s.mapping, s.threshold)
	if !ok {
		s.expireHold(f.At)
		u.Err = ErrNoPose
		return s.finish(u)
	}
	s.poseFrames++
	u.Pose = p

	// Phase-gated metrics are scored against the phase before this frame.
	previous := s.counter.Phase()
	res, err := form.Analyze(p, s.profile, previous)

	if a, aerr := s.profile.Primary.Evaluate(p); aerr == nil {
		u.PrimaryAngle = &a
	}
	if ev := s.counter.Observe(p, f.At); ev != nil {
		u.Event = ev
		s.events = append(s.events, *ev)
	}

	if turned := s.trackDescent(p, u.PrimaryAngle, previous); turned != nil {
		res, err = turned, nil
	}
	if err != nil {
		u.Err = err
	} else {
		u.Form = res
		s.scoreSum += res.Score
		s.scored++
	}
	s.trackHold(res, f.At)
	return s.finish(u)
}

// trackDescent remembers the lowest pose of the current descent. When a
// descent turns around without reaching the bottom phase, it returns that
// pose scored as a bottom so depth cues fire on shallow repetitions.
func (s *Session) trackDescent(p *pose.Pose, angle *float64, previous rep.Phase) *form.Result {
	current := s.counter.Phase()
	switch {
	case current == rep.PhaseDescending:
		if angle != nil && (s.lowest == nil || *angle < s.lowestAngle) {
			s.lowest, s.lowestAngle = p, *angle
		}
		return nil
	case previous == rep.PhaseDescending && current != rep.PhaseBottom && s.lowest != nil:
		lowest := s.lowest
		s.lowest = nil
		res, err := form.Analyze(lowest, s.profile, rep.PhaseBottom)
		if err != nil {
			return nil
		}
		return res
	case current == rep.PhaseStanding || current == rep.PhaseBottom:
		s.lowest = nil
	}
	return nil
}

func (s *Session) finish(u Update) Update {
	st := s.counter.State()
	u.Phase = st.Phase
	u.Reps = st.Reps
	u.HalfReps = st.HalfReps
	u.Hold = s.hold
	if u.Err != nil {
		u.Error = u.Err.Error()
	}
	return u
}

// trackHold extends the current hold while form stays at or above the
// feedback cutoff.
func (s *Session) trackHold(res *form.Result, at time.Time) {
	good := res != nil && res.Score >= s.profile.FeedbackCutoff
	if !good {
		s.prevGood = false
		s.expireHold(at)
		return
	}

	gap := at.Sub(s.lastGood)
	switch {
	case s.lastGood.IsZero() || gap > MaxHoldGap:
		s.hold = 0
	case s.prevGood:
		s.hold += gap
	}
	s.lastGood = at
	s.prevGood = true
	s.bestHold = max(s.bestHold, s.hold)
}

func (s *Session) expireHold(at time.Time) {
	if !s.lastGood.IsZero() && at.Sub(s.lastGood) > MaxHoldGap {
		s.hold = 0
		s.lastGood = time.Time{}
		s.prevGood = false
	}
}

// Summary returns the session totals so far.
func (s *Session) Summary() Summary {
	st := s.counter.State()
	sum := Summary{
		ID:         s.id,
		Profile:    s.profile.Name,
		Detector:   s.mapping.Name,
		StartedAt:  s.startedAt,
		LastAt:     s.lastAt,
		Frames:     s.frames,
		PoseFrames: s.poseFrames,
		Reps:       st.Reps,
		HalfReps:   st.HalfReps,
		BestHold:   s.bestHold,
		Events:     append([]rep.Event(nil), s.events...),
	}
	if s.scored > 0 {
		sum.AvgScore = s.scoreSum / float64(s.scored)
	}
	return sum
}

// Reset clears all progress but keeps the profile and mapping.
func (s *Session) Reset() {
	s.counter.Reset()
	s.startedAt, s.lastAt = time.Time{}, time.Time{}
	s.frames, s.poseFrames, s.scored = 0, 0, 0
	s.scoreSum = 0
	s.events = nil
	s.hold, s.bestHold = 0, 0
	s.lastGood = time.Time{}
	s.prevGood = false
	s.lowest = nil
}
