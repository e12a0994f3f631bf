package workflow

import (
	"hiretrack/internal/pipeline"
	"hiretrack/internal/services"
)

// WriteOption adjusts a single write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	notify bool
	actor  *pipeline.Consultant
}

// WithoutNotification saves without enqueueing a notification event.
func WithoutNotification() WriteOption {
	return func(o *writeOptions) {
		o.notify = false
	}
}

// AsUser performs the write on behalf of a consultant. Users without write
// access are refused.
func AsUser(user pipeline.Consultant) WriteOption {
	return func(o *writeOptions) {
		u := user
		o.actor = &u
	}
}

func resolveWriteOptions(opts []WriteOption) writeOptions {
	options := writeOptions{notify: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

func (o writeOptions) authorize(operation string) error {
	if o.actor == nil || o.actor.CanWrite() {
		return nil
	}
	return services.Wrap(services.ErrPermission, "workflow", operation,
		"consultant "+o.actor.Trigram+" cannot modify processes", ErrReadOnly)
}

// authorizeProcess also hides processes the actor cannot see.
func (o writeOptions) authorizeProcess(operation string, p pipeline.Process) error {
	if err := o.authorize(operation); err != nil {
		return err
	}
	if o.actor != nil && !pipeline.CanSee(*o.actor, p) {
		return services.Wrap(services.ErrPermission, "workflow", operation,
			"process is not visible to "+o.actor.Trigram, nil)
	}
	return nil
}
