// Package core provides the shared domain types of the agentcore engine. It
// defines:
//
//   - Messages and the closed ContentBlock union (text, tool use, tool
//     result, reasoning, cache points, media, guard content)
//   - The canonical streaming event protocol model backends normalize to
//   - Tool specs and tool choice constraints presented to models
//   - Usage / metrics accounting and stop reasons
//   - State, the JSON-serializable key/value store scoped to an agent
//
// The package holds value types only. Orchestration, model adapters and tool
// execution live in their own packages and depend on core, never the other
// way around.
package core
