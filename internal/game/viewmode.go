package game

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

const (
	viewNormal     = "normal"
	viewFullscreen = "fullscreen"

	viewEventPlay = "play"
	viewEventExit = "exit"
)

// viewMode tracks whether a video is shown without overlay chrome.
// Exactly one of normal / fullscreen is current.
type viewMode struct {
	fsm *fsm.FSM
}

func newViewMode() *viewMode {
	return &viewMode{
		fsm: fsm.NewFSM(
			viewNormal,
			fsm.Events{
				{Name: viewEventPlay, Src: []string{viewNormal, viewFullscreen}, Dst: viewFullscreen},
				{Name: viewEventExit, Src: []string{viewNormal, viewFullscreen}, Dst: viewNormal},
			},
			fsm.Callbacks{},
		),
	}
}

// fire applies event. Re-entering the current mode is not an error.
func (v *viewMode) fire(event string) error {
	err := v.fsm.Event(context.Background(), event)
	var same fsm.NoTransitionError
	if err != nil && !errors.As(err, &same) {
		return err
	}
	return nil
}

func (v *viewMode) fullscreen() bool {
	return v.fsm.Current() == viewFullscreen
}

func (v *viewMode) reset() {
	v.fsm.SetState(viewNormal)
}
