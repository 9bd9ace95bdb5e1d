// Package middleware decorates trace sinks.
package middleware

import "github.com/aretw0/algoviz/pkg/ports"

// Middleware allows wrapping a TraceSink to add behavior.
type Middleware func(ports.TraceSink) ports.TraceSink

// Chain applies mws to sink. The first middleware sees entries first.
func Chain(sink ports.TraceSink, mws ...Middleware) ports.TraceSink {
	for i := len(mws) - 1; i >= 0; i-- {
		sink = mws[i](sink)
	}
	return sink
}
