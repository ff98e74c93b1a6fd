// Package agent contains the persona layer of the orchestrator: a fixed
// registry of agent personas (system prompt + permitted skills) and a
// keyword router that classifies free text onto a persona id. Both are
// read-only after construction and safe for concurrent use.
package agent
