// Package mcp exposes Ghostwriter engagement bookkeeping as MCP tools.
//
// The server registers create-or-find tools for clients, projects and
// reports, finding attachment and update tools, codename generation, and
// read-only search and lookup tools. Every tool failure is returned as an
// MCP tool error whose text is a JSON object of the form
//
//	{"error": {"kind": "NOT_FOUND", "message": "...", "ids": [...]}}
//
// The same *mcp.Server is served over stdio (Run) or streamable HTTP
// (Handler).
package mcp
