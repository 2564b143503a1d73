// Package tools is the registry of Moodle tools exposed to MCP clients,
// with the parameter and result types that define their JSON-Schema contracts.
package tools
