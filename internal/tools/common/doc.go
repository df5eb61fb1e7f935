// Package common provides helpers shared by the MCP tool packages:
// argument decoding, JSON results and the instrumented handler wrapper.
package common
