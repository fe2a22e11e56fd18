// Package core provides the foundational domain types and interfaces used by
// the EE Research Scout pipeline. It defines the core abstractions for:
//
//   - Sessions and Queries (immutable caller-supplied request context)
//   - StageResults and the per-query Accumulator (forward-only pipeline state)
//   - Events (immutable, sequence-numbered progress records)
//   - Pluggable data-source Adapters, the Capability gateway and the
//     optional KnowledgeStore / SessionStore collaborators
//   - The pipeline error taxonomy (transient vs. permanent adapter errors,
//     capability failures, fatal analysis failure)
//
// The package intentionally keeps implementation concerns (HTTP transports,
// concrete adapters, orchestration) out of scope, exposing small interfaces
// to enable custom backends and extensions.
package core
