// Package airbendcontext carries a logrus entry alongside a context.Context, so that fields such as the run id and
// site code added by a caller show up in every line logged further down the call chain.
package airbendcontext

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Context is a context.Context with a logger attached.
type Context struct {
	context.Context
	Log *logrus.Entry
}

func standardEntry() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}

// Background is context.Background with the standard logger.
func Background() *Context {
	return New(context.Background(), standardEntry())
}

func New(ctx context.Context, log *logrus.Entry) *Context {
	return &Context{Context: ctx, Log: log}
}

// FromContext returns ctx unchanged if it is already a *Context, otherwise it wraps ctx with the standard logger.
// Code that only receives a context.Context, such as an http.RoundTripper, uses it to recover the caller's fields.
func FromContext(ctx context.Context) *Context {
	if actx, ok := ctx.(*Context); ok {
		return actx
	}
	return New(ctx, standardEntry())
}

func WithCancel(parent *Context) (*Context, context.CancelFunc) {
	c, cancel := context.WithCancel(parent.Context)
	return New(c, parent.Log), cancel
}

func WithDeadline(parent *Context, d time.Time) (*Context, context.CancelFunc) {
	c, cancel := context.WithDeadline(parent.Context, d)
	return New(c, parent.Log), cancel
}

func WithTimeout(parent *Context, timeout time.Duration) (*Context, context.CancelFunc) {
	return WithDeadline(parent, time.Now().Add(timeout))
}

// WithLogField returns a copy of parent whose logger has the extra field.
func WithLogField(parent *Context, key string, val interface{}) *Context {
	return New(parent.Context, parent.Log.WithField(key, val))
}

// ErrGroup is errgroup.WithContext for a *Context; the derived context keeps the logger of ctx.
func ErrGroup(ctx *Context) (*errgroup.Group, *Context) {
	group, gctx := errgroup.WithContext(ctx)
	return group, New(gctx, ctx.Log)
}
