package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/seb7887/listkit/internal/task"
)

type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Top    Direction = "top"
	Bottom Direction = "bottom"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case Up, Down, Top, Bottom:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Tasks returns the tasks of listID in position order.
func (a *App) Tasks(ctx context.Context, listID string) ([]task.Task, error) {
	return a.List.Items(ctx, &task.Task{ListID: listID})
}

// Add appends a new task to listID.
func (a *App) Add(ctx context.Context, listID, title string) (*task.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	t := task.New(listID, title)
	err := a.Retry(ctx, func(ctx context.Context) error {
		t.Position = nil
		return a.Store.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Move moves task id one step or to an end of its list and returns it with
// its new position.
func (a *App) Move(ctx context.Context, id string, dir Direction) (*task.Task, error) {
	var moved *task.Task
	err := a.Retry(ctx, func(ctx context.Context) error {
		t, err := a.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		switch dir {
		case Up:
			err = a.List.MoveHigher(ctx, t)
		case Down:
			err = a.List.MoveLower(ctx, t)
		case Top:
			err = a.List.MoveToTop(ctx, t)
		case Bottom:
			err = a.List.MoveToBottom(ctx, t)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
		}
		moved = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Remove deletes task id and closes the gap it leaves.
func (a *App) Remove(ctx context.Context, id string) error {
	return a.Retry(ctx, func(ctx context.Context) error {
		return a.Store.Delete(ctx, id)
	})
}

// Verify checks that listID holds positions 1..n.
func (a *App) Verify(ctx context.Context, listID string) error {
	return a.List.Verify(ctx, &task.Task{ListID: listID})
}
