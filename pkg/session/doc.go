/*
Package session keeps the live visualizer sessions of a host.

A host (HTTP server, MCP server) creates sessions by visualizer ID and then
drives them by session ID. Operations on one session are serialized by a
per-session lock; locks are reference counted and released when unused.
*/
package session
