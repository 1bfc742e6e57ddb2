// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/divecoach/internal/coachapi"
	"github.com/jeranaias/divecoach/internal/logging"
	"github.com/jeranaias/divecoach/internal/model"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Chatter streams one reply. *coachapi.Client implements it.
type Chatter interface {
	StreamChat(ctx context.Context, req coachapi.ChatRequest, onChunk coachapi.ChunkFunc) error
}

// Sessions is the part of the session store the controller needs.
// *session.Store implements it.
type Sessions interface {
	Current() *model.ChatSession
	GetOrCreateSession(current *model.ChatSession) model.ChatSession
	Select(id string)
	AppendMessage(msg model.ChatMessage, targetID string) string
}

// =============================================================================
// STATE
// =============================================================================

// State is the controller lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStreaming
	// StateCompleting is held while the final assistant message is written.
	StateCompleting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleting:
		return "completing"
	default:
		return "unknown"
	}
}

// Outcome is how a request ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// CancelledMarker ends the assistant message of a cancelled reply.
const CancelledMarker = "[response cancelled]"

// Admission errors returned by Send before anything is written.
var (
	ErrBlankInput = errors.New("stream: message is empty")
	ErrBusy       = errors.New("stream: a reply is already streaming")
)

// =============================================================================
// UPDATES
// =============================================================================

// Update is published to the observer on every transition and chunk.
type Update struct {
	State     State
	SessionID string
	// Chunk is the piece that just arrived; Partial is everything so far.
	Chunk   string
	Partial string
	// Reply is set on the final update of a request.
	Reply   *model.ChatMessage
	Outcome Outcome
	Err     error
}

// Observer receives updates on the goroutine running Send.
type Observer func(Update)

// Result describes a finished request.
type Result struct {
	SessionID string
	Reply     model.ChatMessage
	Outcome   Outcome
	Err       error
}

// =============================================================================
// TARGET CONTEXT
// =============================================================================

type targetKey struct{}

// WithTarget pins the session id a request writes to.
func WithTarget(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, targetKey{}, sessionID)
}

// TargetFrom returns the pinned session id of a request.
func TargetFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(targetKey{}).(string)
	return id, ok
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// Request supplies model, template, similarity method and developer
	// message for every send. UserMessage is ignored.
	Request coachapi.ChatRequest
	// Timeout bounds a whole reply; zero means no limit.
	Timeout  time.Duration
	Observer Observer
	Clock    func() time.Time
	Logger   zerolog.Logger
}

// Controller runs one chat exchange at a time against a session store.
//
// A send captures its target session id once, before the request starts.
// Every write for that request (the user message, and the single assistant
// message at the end) goes to that id, even if the selection changes while
// the reply streams.
type Controller struct {
	chat     Chatter
	sessions Sessions
	timeout  time.Duration
	observer Observer
	now      func() time.Time
	logger   zerolog.Logger

	mu      sync.Mutex
	state   State
	partial strings.Builder
	target  string
	request coachapi.ChatRequest
	cancel  context.CancelFunc
}

// New creates an idle controller.
func New(chat Chatter, sessions Sessions, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Controller{
		chat:     chat,
		sessions: sessions,
		timeout:  opts.Timeout,
		observer: opts.Observer,
		now:      opts.Clock,
		logger:   opts.Logger.With().Str("component", "stream").Logger(),
		request:  opts.Request,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	return c.State() != StateIdle
}

// Partial returns the reply received so far, empty when idle.
func (c *Controller) Partial() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partial.String()
}

// TargetID returns the session the in-flight request writes to.
func (c *Controller) TargetID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Request returns the request settings used for new sends.
func (c *Controller) Request() coachapi.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.request
}

// SetRequest replaces the request settings. An in-flight request keeps the
// settings it started with.
func (c *Controller) SetRequest(req coachapi.ChatRequest) {
	c.mu.Lock()
	c.request = req
	c.mu.Unlock()
}

// Cancel aborts the in-flight request, if any. The partial reply is kept
// and marked as cancelled.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Send runs one exchange and blocks until it ends. Blank input and sends
// while a reply is streaming are rejected with ErrBlankInput and ErrBusy
// and leave the store untouched. Otherwise exactly one user message and one
// assistant message are appended to the target session, whatever the
// outcome.
func (c *Controller) Send(ctx context.Context, input string) (Result, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return Result{}, ErrBlankInput
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return Result{}, ErrBusy
	}
	c.state = StateStreaming
	c.partial.Reset()
	req := c.request
	reqCtx, cancel := c.requestContext(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	// Resolve the target and pin it for the rest of the request.
	target := c.sessions.GetOrCreateSession(c.sessions.Current())
	c.sessions.Select(target.ID)
	reqCtx = WithTarget(reqCtx, target.ID)
	reqCtx = logging.WithSessionID(logging.WithRequestID(reqCtx, uuid.NewString()), target.ID)
	log := logging.With(reqCtx, c.logger)

	c.mu.Lock()
	c.target = target.ID
	c.mu.Unlock()

	c.sessions.AppendMessage(model.NewUserMessage(text, c.now()), target.ID)
	c.publish(Update{State: StateStreaming, SessionID: target.ID})
	log.Debug().Int("chars", len(text)).Msg("reply requested")

	req.UserMessage = text
	err := c.chat.StreamChat(reqCtx, req, func(chunk string) {
		c.mu.Lock()
		c.partial.WriteString(chunk)
		partial := c.partial.String()
		c.mu.Unlock()
		c.publish(Update{State: StateStreaming, SessionID: target.ID, Chunk: chunk, Partial: partial})
	})

	return c.finish(reqCtx, log, err), nil
}

// requestContext derives the request context. Caller holds c.mu.
func (c *Controller) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(parent, c.timeout)
	}
	return context.WithCancel(parent)
}

// finish commits the single assistant message and returns to idle.
func (c *Controller) finish(ctx context.Context, log zerolog.Logger, err error) Result {
	c.mu.Lock()
	c.state = StateCompleting
	content := c.partial.String()
	c.mu.Unlock()

	target, _ := TargetFrom(ctx)
	outcome := OutcomeCompleted
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.Canceled):
		outcome = OutcomeCancelled
		if content == "" {
			content = CancelledMarker
		} else {
			content += "\n\n" + CancelledMarker
		}
	default:
		outcome = OutcomeFailed
		content = "Error: " + err.Error()
	}

	reply := model.NewAssistantMessage(content, c.now())
	c.sessions.AppendMessage(reply, target)

	c.mu.Lock()
	c.partial.Reset()
	c.state = StateIdle
	c.target = ""
	c.cancel = nil
	c.mu.Unlock()

	ev := log.Info()
	if outcome == OutcomeFailed {
		ev = log.Warn().Err(err)
	}
	ev.Str("outcome", outcome.String()).Int("chars", len(reply.Content)).Msg("reply finished")

	c.publish(Update{State: StateIdle, SessionID: target, Reply: &reply, Outcome: outcome, Err: err})
	return Result{SessionID: target, Reply: reply, Outcome: outcome, Err: err}
}

func (c *Controller) publish(u Update) {
	if c.observer != nil {
		c.observer(u)
	}
}
