/*
Package observability turns engine hooks into logs and metrics.

The engine never logs by itself. Hosts subscribe through domain.Hooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(
		observability.LoggingHooks(logger),
		metrics.Hooks(),
	)
	eng, err := promptdown.New(promptdown.WithHooks(hooks))
*/
package observability
