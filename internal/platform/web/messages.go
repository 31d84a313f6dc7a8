package web

import (
	"errors"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/pose"
)

// ClientMessage is anything a browser sends.
type ClientMessage struct {
	Type      string          `json:"type"`                // "camera", "pose", "start", "retry", "reset"
	Ready     *bool           `json:"ready,omitempty"`     // camera
	Keypoints []pose.Keypoint `json:"keypoints,omitempty"` // pose
}

// SessionMessage is sent once on connect.
type SessionMessage struct {
	Type      string `json:"type"` // "session"
	SessionID string `json:"session_id"`
	Levels    int    `json:"levels"`
}

// StateMessage carries a game event and the view after it.
type StateMessage struct {
	Type  string      `json:"type"`  // "state"
	Event string      `json:"event"` // game.EventKind name
	Level int         `json:"level"`
	View  ViewPayload `json:"view"`
}

// ErrorMessage reports a rejected command to the sender only.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Kind    string `json:"kind"` // "acquisition", "invalid_transition", "bad_request", "internal"
	Message string `json:"message"`
}

// SimpleMessage is for notifications without a payload, such as
// "camera_release" when the game no longer needs the stream.
type SimpleMessage struct {
	Type string `json:"type"`
}

// ViewPayload is the JSON form of game.View.
type ViewPayload struct {
	Level         int              `json:"level"`
	TotalLevels   int              `json:"total_levels"`
	LevelName     string           `json:"level_name"`
	Reference     string           `json:"reference"`
	TimeRemaining int              `json:"time_remaining"`
	Countdown     string           `json:"countdown"`
	Score         float64          `json:"score"`
	PassThreshold float64          `json:"pass_threshold"`
	LevelStatus   string           `json:"level_status"`
	RunStatus     string           `json:"run_status"`
	Elapsed       string           `json:"elapsed"`
	ElapsedMS     int64            `json:"elapsed_ms"`
	Outcomes      []OutcomePayload `json:"outcomes,omitempty"`
}

// OutcomePayload is the JSON form of game.LevelOutcome.
type OutcomePayload struct {
	Level      int     `json:"level"`
	Status     string  `json:"status"`
	Score      float64 `json:"score"`
	DurationMS int64   `json:"duration_ms"`
}

func newViewPayload(v game.View) ViewPayload {
	p := ViewPayload{
		Level:         v.LevelIndex,
		TotalLevels:   v.TotalLevels,
		LevelName:     v.LevelName,
		Reference:     v.Reference,
		TimeRemaining: v.TimeRemaining,
		Countdown:     game.FormatSeconds(v.TimeRemaining),
		Score:         v.ScorePercent,
		PassThreshold: v.PassThreshold,
		LevelStatus:   v.LevelStatus.String(),
		RunStatus:     v.RunStatus.String(),
		Elapsed:       game.FormatClock(v.Elapsed),
		ElapsedMS:     v.Elapsed.Milliseconds(),
	}
	for _, o := range v.Outcomes {
		p.Outcomes = append(p.Outcomes, OutcomePayload{
			Level:      o.Level,
			Status:     o.Status.String(),
			Score:      o.Score,
			DurationMS: o.Duration.Milliseconds(),
		})
	}
	return p
}

func newStateMessage(evt game.Event) StateMessage {
	return StateMessage{
		Type:  "state",
		Event: evt.Kind.String(),
		Level: evt.Level,
		View:  newViewPayload(evt.View),
	}
}

func newErrorMessage(err error) ErrorMessage {
	kind := "internal"
	switch {
	case errors.Is(err, game.ErrAcquisition):
		kind = "acquisition"
	case errors.Is(err, game.ErrInvalidTransition):
		kind = "invalid_transition"
	case errors.Is(err, errBadRequest):
		kind = "bad_request"
	}
	return ErrorMessage{Type: "error", Kind: kind, Message: err.Error()}
}
