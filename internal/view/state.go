// Package view holds the per-view state shared by the gateway and the CLI.
package view

import (
	"encoding/json"
	"errors"

	"robohub/internal/domain"
)

// Status tags a State.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// State is one data dependency of a view: loading, failed with a reason, or
// ready with data. The zero value is Loading.
type State[T any] struct {
	status Status
	data   T
	err    error
}

func Loading[T any]() State[T] {
	return State[T]{status: StatusLoading}
}

func Failed[T any](err error) State[T] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return State[T]{status: StatusError, err: err}
}

func Ready[T any](data T) State[T] {
	return State[T]{status: StatusReady, data: data}
}

// From builds Ready(data) or Failed(err).
func From[T any](data T, err error) State[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Ready(data)
}

func (s State[T]) Status() Status {
	if s.status == "" {
		return StatusLoading
	}
	return s.status
}

func (s State[T]) IsLoading() bool { return s.Status() == StatusLoading }

// Data returns the data and whether the state is Ready.
func (s State[T]) Data() (T, bool) {
	return s.data, s.status == StatusReady
}

// Err returns the failure reason, nil unless the state is Error.
func (s State[T]) Err() error {
	if s.status != StatusError {
		return nil
	}
	return s.err
}

type stateJSON[T any] struct {
	Status Status `json:"status"`
	Data   *T     `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s State[T]) MarshalJSON() ([]byte, error) {
	out := stateJSON[T]{Status: s.Status()}
	switch s.status {
	case StatusReady:
		out.Data = &s.data
	case StatusError:
		out.Error = domain.Message(s.err)
	}
	return json.Marshal(out)
}

// Level of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a transient message shown alongside a view.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Success(msg string) *Notice { return &Notice{Level: LevelSuccess, Message: msg} }

func Info(msg string) *Notice { return &Notice{Level: LevelInfo, Message: msg} }

// ErrorNotice turns err into a notice with its human-readable message.
func ErrorNotice(err error) *Notice {
	return &Notice{Level: LevelError, Message: domain.Message(err)}
}
