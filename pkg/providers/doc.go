// Package providers groups the concrete model adapters.
//
// Each sub-package implements [github.com/germanamz/actloop/pkg/modeladapter.Completer]
// on top of a vendor SDK:
//   - [github.com/germanamz/actloop/pkg/providers/openai]: OpenAI-compatible chat completions (OpenAI, Moonshot, OpenRouter, ...)
//   - [github.com/germanamz/actloop/pkg/providers/ollama]: a local or remote Ollama server
//   - [github.com/germanamz/actloop/pkg/providers/gemini]: the Google Gemini API
//
// Adapters translate turns and tool declarations to the vendor format and
// validate replies through [github.com/germanamz/actloop/pkg/modeladapter.NewResponse].
package providers
