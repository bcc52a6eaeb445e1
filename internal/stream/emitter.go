// Package stream produces the frame sequence for a stream connection.
package stream

import (
	"context"
	"iter"
	"log/slog"

	"github.com/i474232898/mcp-weather-server/internal/protocol"
	"github.com/i474232898/mcp-weather-server/internal/query"
	"github.com/i474232898/mcp-weather-server/internal/tools"
	"github.com/i474232898/mcp-weather-server/internal/weather"
)

// Claimer is the part of the session registry the emitter needs.
type Claimer interface {
	Claim(id string) (query.Interpreted, error)
}

// Emitter turns a session into frames.
type Emitter struct {
	sessions Claimer
	weather  weather.Client
}

// NewEmitter creates an Emitter.
func NewEmitter(sessions Claimer, client weather.Client) *Emitter {
	return &Emitter{sessions: sessions, weather: client}
}

// Connect returns the lazy, finite frame sequence for sessionID. Nothing runs
// until the sequence is iterated, and it can be iterated once: the claim
// consumes the session.
//
// A failed claim yields a single error frame. Otherwise the sequence is one
// data or error frame followed by the end frame. If the consumer stops early
// no further frames are produced; an upstream call already started still runs
// to completion or timeout.
func (e *Emitter) Connect(ctx context.Context, sessionID string) iter.Seq[protocol.Frame] {
	return func(yield func(protocol.Frame) bool) {
		log := slog.Default().With("session", sessionID)

		q, err := e.sessions.Claim(sessionID)
		if err != nil {
			mapped := protocol.FromError(err)
			log.InfoContext(ctx, "stream: claim rejected", "kind", mapped.Kind)
			yield(protocol.ErrorFrame(mapped))
			return
		}

		call := tools.Resolve(q)
		log.DebugContext(ctx, "stream: session claimed", "tool", call.Tool, "city", q.City)

		if !yield(e.result(ctx, log, call)) {
			log.InfoContext(ctx, "stream: client went away before end of stream")
			return
		}
		yield(protocol.EndFrame())
	}
}

func (e *Emitter) result(ctx context.Context, log *slog.Logger, call tools.Call) protocol.Frame {
	data, err := tools.Invoke(ctx, e.weather, call)
	if err != nil {
		mapped := protocol.FromError(err)
		log.WarnContext(ctx, "stream: upstream call failed", "kind", mapped.Kind, "error", err)
		return protocol.ErrorFrame(mapped)
	}

	frame, err := protocol.DataFrame(data)
	if err != nil {
		log.ErrorContext(ctx, "stream: encode result", "error", err)
		return protocol.ErrorFrame(protocol.FromError(err))
	}
	return frame
}
