// Package engine is the composition root that assembles providers, tools,
// agents and the router from configuration and exposes them through a
// frontend-agnostic API. Frontends handle one-shot requests with
// [Engine.Handle] or multi-turn conversations with [Session], observe loop
// activity through an [EventBus], and never wire lower-level packages
// themselves.
package engine
