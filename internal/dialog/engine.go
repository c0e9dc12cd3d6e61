// Package dialog implements the per-user catalog menu state machine.
package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lojasmm/lista/internal/catalog"
	"github.com/lojasmm/lista/internal/conversation"
	"github.com/lojasmm/lista/internal/metrics"
	"github.com/lojasmm/lista/internal/session"
	"github.com/rs/zerolog"
)

const DefaultKeyword = "@lista"

// Engine consumes one inbound message at a time per user and returns the
// replies to send. It is safe for concurrent use.
type Engine struct {
	store   conversation.Store
	catalog catalog.Gateway
	locks   *session.Manager
	keyword string
	log     zerolog.Logger
	now     func() time.Time
	table   map[transitionKey]transition
}

type Option func(*Engine)

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the state machine. keyword is the start trigger; empty
// means DefaultKeyword.
func NewEngine(store conversation.Store, gw catalog.Gateway, locks *session.Manager, keyword string, opts ...Option) *Engine {
	if keyword == "" {
		keyword = DefaultKeyword
	}
	e := &Engine{
		store:   store,
		catalog: gw,
		locks:   locks,
		keyword: keyword,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.table = e.transitions()
	return e
}

// Handle processes text sent by userID and returns the outbound messages, in
// order. Messages that do not concern the bot yield no replies.
func (e *Engine) Handle(ctx context.Context, userID, text string) []string {
	var replies []string
	_ = e.locks.WithLock(userID, func() error {
		replies = e.handle(ctx, userID, strings.TrimSpace(text))
		return nil
	})
	return replies
}

func (e *Engine) handle(ctx context.Context, userID, text string) (replies []string) {
	current := e.store.Get(userID)
	from := current.State

	if !from.Active() && !e.isStart(text) {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			replies = e.fail(ctx, userID, from, fmt.Errorf("panic: %v", r))
		}
	}()

	in := classify(from, text)
	key := transitionKey{state: lookupState(from), input: in.kind}
	t, ok := e.table[key]
	if !ok {
		return e.fail(ctx, userID, from, fmt.Errorf("no transition for state %s input %s", from, in.kind))
	}

	// Transitions work on a copy; the store only sees the committed result.
	next := current
	replies, err := t(ctx, &next, in)
	if err != nil {
		return e.fail(ctx, userID, from, err)
	}

	if next.State == conversation.StateEnded {
		e.store.Reset(userID)
	} else {
		e.store.Set(userID, next)
	}
	if next.State != from {
		metrics.IncTransition(from.String(), next.State.String())
		e.logger(ctx).Debug().
			Str("from", from.String()).
			Str("to", next.State.String()).
			Msg("dialog: transition")
	}
	return replies
}

// fail resets the user after an unexpected fault and returns the single
// apology reply.
func (e *Engine) fail(ctx context.Context, userID string, from conversation.State, err error) []string {
	errType := catalog.TypeOf(err)
	e.logger(ctx).Error().
		Err(err).
		Str("state", from.String()).
		Str("error_type", string(errType)).
		Msg("dialog: resetting conversation after error")

	e.store.Reset(userID)
	metrics.IncDialogError(string(errType))
	metrics.IncTransition(from.String(), conversation.StateEnded.String())
	return []string{msgUnexpectedError}
}

func (e *Engine) isStart(text string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(e.keyword))
}

func (e *Engine) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &e.log
}

// lookupState folds the two idle states onto one table row.
func lookupState(s conversation.State) conversation.State {
	if !s.Active() {
		return conversation.StateNone
	}
	return s
}
