// Package aggregate folds the canonical stream event protocol into complete
// messages. The agent loop feeds it every event a model adapter emits,
// re-emitting raw events as they pass through and completed content blocks
// as the aggregator closes them, then collects the final message and stop
// reason once the stream ends.
package aggregate
