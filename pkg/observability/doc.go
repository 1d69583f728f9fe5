/*
Package observability turns engine lifecycle events into logs and Prometheus metrics.

Hooks from this package are plain domain.LifecycleHooks values; combine them
with Combine and pass the result to ruleflow.WithLifecycleHooks.
*/
package observability
