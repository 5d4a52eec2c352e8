package metrics

import "go.uber.org/fx"

// Module provides a Collector under the default namespace.
var Module = fx.Module("metrics", fx.Provide(
	func() *Collector { return New("") },
))
