// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/tiercache/core"
	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func collectionNames() []string {
	names := make([]string, len(schema.AllCollections))
	for i, c := range schema.AllCollections {
		names[i] = string(c)
	}
	return names
}

// NewMCPServer initializes and configures the storage MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr *core.StorageManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Tiercache Storage Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_record ---
	s.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Read a content record, consulting the remote, structured and fallback tiers in order."),
		mcp.WithString("collection", mcp.Description("Content collection."), mcp.Required(), mcp.Enum(collectionNames()...)),
		mcp.WithString("key", mcp.Description("Colon-separated composite key (e.g. 'n1' or 'book1:chapter2')."), mcp.Required()),
	), h.handleGetRecord)

	// --- 2. Tool: save_record ---
	s.AddTool(mcp.NewTool("save_record",
		mcp.WithDescription("Save a content record to the local tiers, and to the remote when a writer is given."),
		mcp.WithString("collection", mcp.Description("Content collection."), mcp.Required(), mcp.Enum(collectionNames()...)),
		mcp.WithString("key", mcp.Description("Colon-separated composite key."), mcp.Required()),
		mcp.WithString("payload", mcp.Description("Record body as a JSON document."), mcp.Required()),
		mcp.WithString("writer", mcp.Description("Writer identity authorizing the remote write. Omit for a local-only save.")),
	), h.handleSaveRecord)

	// --- 3. Tool: delete_record ---
	s.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("Delete a content record from every tier it can reach."),
		mcp.WithString("collection", mcp.Description("Content collection."), mcp.Required(), mcp.Enum(collectionNames()...)),
		mcp.WithString("key", mcp.Description("Colon-separated composite key."), mcp.Required()),
		mcp.WithString("writer", mcp.Description("Writer identity authorizing the remote delete.")),
	), h.handleDeleteRecord)

	// --- 4. Tool: finalize_exam ---
	s.AddTool(mcp.NewTool("finalize_exam",
		mcp.WithDescription("Assign global question numbers to an exam and save it under (level, exam_id)."),
		mcp.WithString("level", mcp.Description("Exam level (e.g. 'n1')."), mcp.Required()),
		mcp.WithString("exam_id", mcp.Description("Exam identifier."), mcp.Required()),
		mcp.WithString("exam", mcp.Description("Exam document as JSON."), mcp.Required()),
		mcp.WithString("writer", mcp.Description("Writer identity authorizing the remote write.")),
	), h.handleFinalizeExam)

	// --- 5. Tool: tier_status ---
	s.AddTool(mcp.NewTool("tier_status",
		mcp.WithDescription("Report the availability and usage of every storage tier."),
	), h.handleTierStatus)

	return s
}

// StartMCPServer starts the storage MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr *core.StorageManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
