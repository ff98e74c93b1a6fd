// Package engine implements the per-turn orchestration loop: route the
// inbound message to a persona, assemble bounded context from the memory
// tiers, drive the provider with the persona prompt and its allowed tool
// definitions, execute any surfaced tool calls through the skill dispatcher,
// and write the finished turn back to the conversation buffer and episodic
// tier.
//
// Scheduling is request-per-turn: the engine holds no mutable state between
// turns beyond the read-only persona tables and the skill registry, so
// per-tenant concurrency is safe without locks.
package engine
