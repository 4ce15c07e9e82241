// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"io"
	"net/url"
)

// ErrBodyType is returned by BodyBytes for a body that is not nil, a
// string, a []byte, url.Values, or an io.Reader.
var ErrBodyType = errors.New("proxyx/request: unsupported body type")

// BodyBytes buffers a generic body parameter so the same body can be
// replayed on every attempt, whichever path it takes.
//
// A []byte is returned as-is, without copying. url.Values are
// URL-encoded. A reader is drained and, if it is an io.Closer, closed;
// on any read or close error the buffered bytes are discarded.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	case url.Values:
		return []byte(x.Encode()), nil
	case io.Reader:
		return drain(x)
	}
	return nil, fmt.Errorf("%w: %T", ErrBodyType, body)
}

func drain(r io.Reader) (b []byte, err error) {
	if c, ok := r.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); err == nil && cerr != nil {
				b, err = nil, cerr
			}
		}()
	}
	b, err = io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return b, nil
}
