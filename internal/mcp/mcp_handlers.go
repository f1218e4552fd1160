package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/tiercache/core"
	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     *core.StorageManager
}

// recordResult is the JSON body returned by the record tools.
type recordResult struct {
	Collection schema.Collection `json:"collection"`
	Key        string            `json:"key"`
	Found      bool              `json:"found,omitempty"`
	Saved      bool              `json:"saved,omitempty"`
	Deleted    bool              `json:"deleted,omitempty"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
}

// resolve maps the collection and key arguments onto a raw collection accessor.
func (h *toolHandler) resolve(request mcp.CallToolRequest) (core.RawCollection, schema.CompositeKey, error) {
	collection := schema.Collection(request.GetString("collection", ""))
	key := schema.ParseKey(request.GetString("key", ""))
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("key is required")
	}
	raw, err := h.mgr.Raw(collection, len(key))
	if err != nil {
		return nil, nil, err
	}
	if err := key.Validate(raw.Arity()); err != nil {
		return nil, nil, err
	}
	return raw, key, nil
}

// writerContext attaches the writer argument, or the configured writer, to ctx.
func (h *toolHandler) writerContext(ctx context.Context, request mcp.CallToolRequest) context.Context {
	writer := request.GetString("writer", "")
	if writer == "" && h.baseCfg != nil {
		writer = h.baseCfg.Writer
	}
	if writer == "" {
		return ctx
	}
	return core.WithWriter(ctx, writer)
}

func textResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, key, err := h.resolve(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid record parameters: %v", err)), nil
	}

	payload, ok := raw.GetPayload(ctx, key)
	result := recordResult{Collection: raw.Name(), Key: key.String(), Found: ok}
	if ok {
		result.Payload = payload
	}
	return textResult(result), nil
}

func (h *toolHandler) handleSaveRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, key, err := h.resolve(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid record parameters: %v", err)), nil
	}
	payload := []byte(request.GetString("payload", ""))
	if !json.Valid(payload) {
		return mcp.NewToolResultError("payload must be a valid JSON document"), nil
	}

	if !raw.SavePayload(h.writerContext(ctx, request), key, payload) {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: no tier accepted %s %s", raw.Name(), key)), nil
	}
	return textResult(recordResult{Collection: raw.Name(), Key: key.String(), Saved: true}), nil
}

func (h *toolHandler) handleDeleteRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, key, err := h.resolve(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid record parameters: %v", err)), nil
	}

	deleted := raw.Delete(h.writerContext(ctx, request), key)
	return textResult(recordResult{Collection: raw.Name(), Key: key.String(), Deleted: deleted}), nil
}

func (h *toolHandler) handleFinalizeExam(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level := request.GetString("level", "")
	examID := request.GetString("exam_id", "")
	if err := schema.Key(level, examID).Validate(2); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid exam parameters: %v", err)), nil
	}

	var e schema.Exam
	if err := json.Unmarshal([]byte(request.GetString("exam", "")), &e); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid exam document: %v", err)), nil
	}

	normalized, ok := h.mgr.FinalizeExam(h.writerContext(ctx, request), level, examID, &e)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: no tier accepted exam %s/%s", level, examID)), nil
	}
	return textResult(normalized), nil
}

func (h *toolHandler) handleTierStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(h.mgr.Status(ctx)), nil
}
