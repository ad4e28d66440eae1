// Package mcp implements the Model Context Protocol server: JSON-RPC
// 2.0 over stdio, exposing the bioinformatics tool service as MCP
// tools. Only protocol JSON goes to stdout; logs go to stderr.
package mcp

import "encoding/json"

// Request is an MCP JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an MCP JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the error member of a failed response.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON-RPC error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Tool is an MCP tool definition.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolCallParams carries the arguments of a tools/call request.
type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

const protocolVersion = "2024-11-05"

func errorResponse(id any, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ErrorObject{Code: code, Message: message},
	}
}

func resultResponse(id any, result any) *Response {
	raw, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, InternalError, "failed to marshal result: "+err.Error())
	}
	return &Response{JSONRPC: "2.0", ID: id, Result: json.RawMessage(raw)}
}

// textResult wraps a payload as the MCP content envelope: the payload
// is rendered as JSON text inside a single text content block.
func textResult(id any, payload any) *Response {
	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResponse(id, InternalError, "failed to marshal tool result: "+err.Error())
	}
	result := map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
		"isError": false,
	}
	return resultResponse(id, result)
}
