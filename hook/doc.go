// Package hook provides the callback registry used to observe and steer
// agent execution. Lifecycle events are typed values; callbacks registered
// for an event's kind run sequentially (before-events in registration order,
// after-events reversed) so composed features layer symmetrically around the
// operations they wrap.
package hook
