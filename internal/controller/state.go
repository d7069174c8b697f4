package controller

import "github.com/kjstillabower/airlytics/internal/models"

// Phase is the request lifecycle phase. Exactly one is active at a time.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller. Result is set only in PhaseSuccess,
// Err only in PhaseError, LoadingMessage only in PhaseLoading. Input is the
// request of the current generation and survives an error.
type State struct {
	Phase          Phase
	Generation     uint64
	Input          *models.PredictionRequest
	Result         *models.PredictionResult
	Err            string
	LoadingMessage string
}

// clone returns a snapshot that shares no pointers with s.
func (s State) clone() State {
	out := s
	if s.Input != nil {
		in := *s.Input
		out.Input = &in
	}
	if s.Result != nil {
		res := *s.Result
		out.Result = &res
	}
	return out
}
