// Package news defines the core types and collaborator contracts shared
// across the topic pipeline subsystems.
//
// By expressing every external dependency (article source, store, cache,
// summarizer, embedder) as an interface here, the orchestrator and the
// clustering engine stay decoupled from concrete backends, which keeps
// them testable with in-memory fakes.
package news
