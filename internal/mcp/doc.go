// Package mcp exposes the codec service as MCP tools over stdio.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and registers four tools backed directly by compression.Service:
//
//   - compress: encode text into a middle-out envelope
//   - decompress: recover text from an envelope (never fails)
//   - score: compute a Weissman score from sizes
//   - algorithms: list the available codecs
//
// Every tool returns a short text summary plus structured output.
package mcp
