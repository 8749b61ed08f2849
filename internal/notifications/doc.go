// Package notifications pushes job outcomes to the operator.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Observer adapts a
// Service to the session manager's job observer hook so finished burns are
// reported without the chat flow knowing about ntfy.
package notifications
