// Package core defines the shared types and store contracts used across the
// Loom orchestration subsystem: normalized chat requests and responses,
// streaming events, tool call shapes and the four memory tier interfaces
// (short-term, profile, episodic, long-term). Implementations live in the
// memory and model packages; core carries no I/O of its own.
package core
