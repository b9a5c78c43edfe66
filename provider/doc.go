// Package provider defines the contract between a host transport and
// the provider it drives.
//
// A provider is a small unit of user logic hosted by one of the two
// transports (RPC or stdio). The host discovers what a provider can do
// through capability interfaces, asserted at dispatch time:
//
//   - Input: produces a stream of envelopes (pull-based Iterator)
//   - Output: consumes batches of envelopes
//   - Initializer: needs setup after configuration is bound
//   - Closeable: holds resources requiring cleanup
//
// The infrastructure lifecycle capability (init/plan/status/destroy)
// lives in the lifecycle package.
//
// Providers embed Base[C] to store their bound configuration and the
// runtime context (logger plus emission callback). Initialize is
// one-shot: the first call wins, later calls are no-ops.
//
//	type Counter struct {
//	    provider.Base[CounterConfig]
//	}
//
//	func (c *Counter) Name() string { return "counter" }
//
//	func (c *Counter) Produce(ctx context.Context) (provider.Iterator[envelope.Envelope], error) {
//	    ...
//	}
//
// Factories are registered statically by name; there is no dynamic
// provider discovery.
package provider
