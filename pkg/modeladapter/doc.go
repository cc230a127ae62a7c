// Package modeladapter defines the boundary between the agent loop and a
// language model.
//
// It contains:
//   - [Completer], the opaque model call: system prompt, turns and tool
//     declarations in, a validated [Response] out
//   - [Response], a tagged final-answer or tool-calls variant checked at the
//     boundary so malformed provider output surfaces as a [ModelCallError]
//   - [ModelAdapter], an embeddable base with model settings, a logger and
//     usage tracking for concrete providers
//   - [github.com/germanamz/actloop/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// This package contains no provider-specific code. Concrete adapters live in
// separate packages that import modeladapter.
package modeladapter
