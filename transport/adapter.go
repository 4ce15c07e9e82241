// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"

	"github.com/gogama/proxyx/request"
	"github.com/gogama/proxyx/transient"
)

// ErrNilResponse is the failure reported when a Doer returns neither a
// response nor an error.
var ErrNilResponse = errors.New("proxyx/transport: doer returned nil response and nil error")

// An Attempter makes one request attempt and reports its tagged
// outcome. The fallback requester depends only on this interface, and
// branches on the outcome's Kind alone.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type Attempter interface {
	Attempt(ctx context.Context, target string, opts *request.Options) request.Outcome
}

// A Classifier decides the Kind of a failed attempt from its error. It
// must return Transient or NonTransient.
//
// This is the one contract the fallback behavior hinges on: an error
// classified Transient makes the requester move on to the next path,
// while one classified NonTransient is surfaced to the caller at once.
type Classifier interface {
	Classify(err error) request.Kind
}

// The ClassifierFunc type is an adapter to allow the use of ordinary
// functions as Classifiers.
type ClassifierFunc func(err error) request.Kind

// Classify calls f(err).
func (f ClassifierFunc) Classify(err error) request.Kind {
	return f(err)
}

// DefaultClassifier classifies connection-level errors, as determined
// by transient.Categorize, as Transient and every other error as
// NonTransient. A body read failure (ErrReadBody) is NonTransient even
// if its cause is connection-level.
var DefaultClassifier ClassifierFunc = classifyTransport

func classifyTransport(err error) request.Kind {
	if errors.Is(err, ErrReadBody) {
		return request.NonTransient
	}
	if transient.IsTransport(err) {
		return request.Transient
	}
	return request.NonTransient
}

// An Adapter wraps a raw Doer into an Attempter, converting every
// result of the Doer into a tagged Outcome. The error in a failed
// outcome is the Doer's error, unmodified.
//
// The zero value Adapter uses DefaultHTTP and DefaultClassifier.
type Adapter struct {
	// Doer performs the attempts. If nil, DefaultHTTP is used.
	Doer Doer
	// Classifier tags failed attempts. If nil, DefaultClassifier is
	// used.
	Classifier Classifier
}

// NewAdapter constructs an Adapter for d using DefaultClassifier.
func NewAdapter(d Doer) *Adapter {
	if d == nil {
		panic("proxyx/transport: nil doer")
	}
	return &Adapter{Doer: d}
}

// Attempt implements Attempter.
func (a *Adapter) Attempt(ctx context.Context, target string, opts *request.Options) request.Outcome {
	resp, err := a.doer().Do(ctx, target, opts)
	if err != nil {
		k := a.classifier().Classify(err)
		if k == request.Success {
			k = request.Unknown
		}
		return request.Failed(k, err)
	}
	if resp == nil {
		return request.Failed(request.NonTransient, ErrNilResponse)
	}
	return request.Succeeded(resp)
}

// CloseIdleConnections invokes the same method on the adapter's Doer,
// if it has one.
func (a *Adapter) CloseIdleConnections() {
	if ic, ok := a.doer().(interface{ CloseIdleConnections() }); ok {
		ic.CloseIdleConnections()
	}
}

func (a *Adapter) doer() Doer {
	if a.Doer == nil {
		return DefaultHTTP
	}
	return a.Doer
}

func (a *Adapter) classifier() Classifier {
	if a.Classifier == nil {
		return DefaultClassifier
	}
	return a.Classifier
}
