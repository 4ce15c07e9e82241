// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport performs the individual request attempts a fallback
request is made of.

It has two layers. A Doer is the raw "perform request" capability: it
takes a target and an option set, and returns a fully-read response or
an error. HTTP is the Doer built on net/http, which knows how to send an
attempt directly, through an HTTP or HTTPS proxy, or through a SOCKS5
proxy.

An Attempter is what the fallback requester calls. Adapter turns any
Doer into an Attempter by tagging each result with a request.Kind:

	a := &transport.Adapter{
		Doer:       &transport.HTTP{},
		Classifier: transport.DefaultClassifier,
	}
	requester := &proxyx.Requester{Transport: a}

The classification is the contract the fallback behavior depends on.
DefaultClassifier treats connection-level errors (see package transient)
as Transient, and everything else as NonTransient.
*/
package transport
