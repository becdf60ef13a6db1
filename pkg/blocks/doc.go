// Package blocks holds the types shared by every blocks SDK package: the
// structured Error returned by the transport, request options and responses,
// retry configuration, header providers, and the interceptor chain.
//
// Interceptors observe or alter each physical attempt:
//
//	chain := blocks.NewInterceptorChain().
//		AddRequestInterceptor(func(ctx context.Context, req *blocks.RequestContext) error {
//			req.Headers.Set("X-Tenant", "acme")
//			return nil
//		}).
//		AddErrorInterceptor(func(ctx context.Context, req *blocks.RequestContext, err *blocks.Error) {
//			log.Printf("%s %s failed: %v", req.Method, req.Path, err)
//		})
//
// Errors are inspected with the predicate helpers:
//
//	if blocks.IsNotFound(err) {
//		// handle 404
//	}
//
// Stock interceptors cover logging (LoggingInterceptors), Prometheus metrics
// (NewMetrics), NATS request events (EventInterceptors) and circuit breaking
// (CircuitBreakerInterceptors).
package blocks
