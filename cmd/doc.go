// Package cmd implements the command-line interface for inboxpal.
//
// This package provides the following commands:
//   - serve: Start the HTTP API for the assistant frontend
//   - mcp: Serve the inbox tools over MCP stdio
//   - rank: Rank the recent inbox once and print the ordering
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
// Every command builds one config.Config from flags, falling back to
// environment variables, and passes it down explicitly.
package cmd
