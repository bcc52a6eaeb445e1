// Package dispatch decides, per request, whether to answer synchronously or to
// register a streaming session, and always produces exactly one envelope.
package dispatch

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/i474232898/mcp-weather-server/internal/protocol"
	"github.com/i474232898/mcp-weather-server/internal/query"
	"github.com/i474232898/mcp-weather-server/internal/session"
	"github.com/i474232898/mcp-weather-server/internal/tools"
	"github.com/i474232898/mcp-weather-server/internal/weather"
)

// DefaultStreamPath is the stream endpoint; the session id is appended as the
// session_id query parameter.
const DefaultStreamPath = "/v1/mcp/messages/"

// Registry is the part of the session registry the dispatcher needs.
type Registry interface {
	Create(q query.Interpreted) (string, error)
	Lookup(id string) (session.Session, bool)
}

// Dispatcher is the request orchestrator.
type Dispatcher struct {
	sessions   Registry
	weather    weather.Client
	streamPath string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStreamPath overrides DefaultStreamPath.
func WithStreamPath(path string) Option {
	return func(d *Dispatcher) {
		d.streamPath = path
	}
}

// New creates a Dispatcher.
func New(sessions Registry, client weather.Client, options ...Option) *Dispatcher {
	d := &Dispatcher{
		sessions:   sessions,
		weather:    client,
		streamPath: DefaultStreamPath,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Dispatch runs one request through
// RECEIVED → INTERPRETED → {SYNC_RESOLVED | STREAM_REGISTERED} → RESPONDED
// and returns the single envelope to hand to the transport.
func (d *Dispatcher) Dispatch(ctx context.Context, req protocol.Request) protocol.Envelope {
	st := newRequestState(ctx)

	q, err := query.Interpret(req.Text())
	if err != nil {
		return st.fail(err)
	}
	st.advance(stageInterpreted, "city", q.City, "intent", q.Intent)

	if req.Streaming() {
		return d.register(st, q)
	}
	return d.resolve(ctx, st, q)
}

func (d *Dispatcher) resolve(ctx context.Context, st *requestState, q query.Interpreted) protocol.Envelope {
	call := tools.Resolve(q)

	started := time.Now()
	data, err := tools.Invoke(ctx, d.weather, call)
	if err != nil {
		return st.fail(err, "tool", call.Tool)
	}
	st.advance(stageSyncResolved, "tool", call.Tool, "elapsed", time.Since(started))

	return st.respond(protocol.OK(q.Intent.String(), q.City, data))
}

func (d *Dispatcher) register(st *requestState, q query.Interpreted) protocol.Envelope {
	id, err := d.sessions.Create(q)
	if err != nil {
		return st.fail(err)
	}
	st.advance(stageStreamRegistered, "session", id)

	var expiresAt time.Time
	if s, ok := d.sessions.Lookup(id); ok {
		expiresAt = s.ExpiresAt
	}

	return st.respond(protocol.Pending(id, d.streamURL(id), expiresAt))
}

func (d *Dispatcher) streamURL(id string) string {
	return d.streamPath + "?" + url.Values{"session_id": {id}}.Encode()
}

type stage int

const (
	stageReceived stage = iota
	stageInterpreted
	stageSyncResolved
	stageStreamRegistered
	stageResponded
	stageError
)

func (s stage) String() string {
	switch s {
	case stageReceived:
		return "RECEIVED"
	case stageInterpreted:
		return "INTERPRETED"
	case stageSyncResolved:
		return "SYNC_RESOLVED"
	case stageStreamRegistered:
		return "STREAM_REGISTERED"
	case stageResponded:
		return "RESPONDED"
	default:
		return "ERROR"
	}
}

// requestState tracks one request through the dispatch state machine.
type requestState struct {
	ctx   context.Context
	log   *slog.Logger
	stage stage
}

func newRequestState(ctx context.Context) *requestState {
	st := &requestState{
		ctx:   ctx,
		log:   slog.Default().With("request", ulid.Make().String()),
		stage: stageReceived,
	}
	st.log.DebugContext(ctx, "dispatch: request received")
	return st
}

func (st *requestState) advance(to stage, attrs ...any) {
	st.log.DebugContext(st.ctx, "dispatch: transition", append([]any{"from", st.stage, "to", to}, attrs...)...)
	st.stage = to
}

func (st *requestState) respond(env protocol.Envelope) protocol.Envelope {
	st.advance(stageResponded, "status", env.Status)
	return env
}

// fail maps err to the taxonomy and moves to ERROR, the terminal state.
func (st *requestState) fail(err error, attrs ...any) protocol.Envelope {
	mapped := protocol.FromError(err)

	level := slog.LevelWarn
	if mapped.Kind == protocol.KindInternalError {
		level = slog.LevelError
	}
	st.log.Log(st.ctx, level, "dispatch: request failed",
		append([]any{"stage", st.stage, "kind", mapped.Kind, "error", err}, attrs...)...)

	st.stage = stageError
	return protocol.Failure(mapped)
}
