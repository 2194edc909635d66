// Copyright (c) 2025-present the Corkboard authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package debuglog accumulates per-request diagnostics. Stages of the
// request pipeline append key-value records to a recorder carried on
// the request context; the outermost middleware flushes them through
// slog once the response is written.
package debuglog

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder collects diagnostic attributes for a single request. All
// methods are safe on a nil receiver, so callers never need to check
// whether a recorder was attached.
type Recorder struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// Add appends attributes in slog key-value form.
func (r *Recorder) Add(args ...any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attrs = append(r.attrs, argsToAttrs(args)...)
}

// Attrs returns a copy of everything recorded so far.
func (r *Recorder) Attrs() []slog.Attr {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]slog.Attr, len(r.attrs))
	copy(out, r.attrs)
	return out
}

// Flush emits the accumulated record at debug level and resets the
// recorder.
func (r *Recorder) Flush(logger *slog.Logger, msg string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	attrs := r.attrs
	r.attrs = nil
	r.mu.Unlock()
	logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

// argsToAttrs converts loose key-value pairs the way slog does. A
// dangling key is dropped.
func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}

// ctxKey scopes the recorder stored on the request context.
type ctxKey struct{}

// Attach stores a fresh recorder on the context.
func Attach(ctx context.Context) (context.Context, *Recorder) {
	r := &Recorder{}
	return context.WithValue(ctx, ctxKey{}, r), r
}

// From returns the recorder attached to the context, or nil. The nil
// recorder is valid and discards everything.
func From(ctx context.Context) *Recorder {
	r, _ := ctx.Value(ctxKey{}).(*Recorder)
	return r
}
