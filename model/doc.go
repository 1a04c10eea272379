// Package model defines the provider-agnostic backend contract of the
// engine.
//
// Core goals:
//   - Normalize conversation, tool specs and tool choice into one Request
//   - Expose generation as a single canonical event stream (Model.Stream)
//   - Classify provider resource-limit failures uniformly
//     (ContextWindowOverflowError)
//   - Facilitate scripted mocking for tests and examples (MockModel)
//
// Providers (Anthropic, OpenAI, Bedrock) implement the Model interface in
// subpackages so higher layers remain decoupled from vendor SDKs.
package model
