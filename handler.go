// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package proxyx

import (
	"github.com/gogama/proxyx/request"
)

// A HandlerGroup is a group of event handler chains which can be
// installed in a Requester. It is the requester's diagnostic sink:
// everything the requester reports about a fallback request is
// delivered through it.
//
// A HandlerGroup must be fully built before the Requester using it
// makes its first request.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds an event handler to the back of the event handler chain
// for a specific event type.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("proxyx: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

// PushBackAll adds an event handler to the back of the event handler
// chains for each of the given event types. If no event types are
// given, the handler is added to every chain.
func (g *HandlerGroup) PushBackAll(h Handler, evts ...Event) {
	if len(evts) == 0 {
		evts = Events()
	}

	for _, evt := range evts {
		g.PushBack(evt, h)
	}
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	i := int(evt)
	if i < len(g.handlers) {
		run(g.handlers[i], evt, e)
	}
}

func run(chain []Handler, evt Event, e *request.Execution) {
	for _, h := range chain {
		h.Handle(evt, e)
	}
}

// A Handler handles the occurrence of an event during a fallback
// request execution.
//
// Handlers run synchronously on the goroutine making the request, so
// they should be quick and must not block.
type Handler interface {
	Handle(Event, *request.Execution)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers. If f is a function with appropriate
// signature, then HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}
