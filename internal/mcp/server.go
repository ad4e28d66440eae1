package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/bioopenmcp/biomcp/pkg/fastq"
	"github.com/bioopenmcp/biomcp/pkg/jobs"
	"github.com/bioopenmcp/biomcp/pkg/tools"
)

// Server routes MCP requests to the tool service.
type Server struct {
	svc     *tools.Service
	finder  fastq.Finder
	logger  *zap.Logger
	name    string
	version string
}

// NewServer creates an MCP server over a shared tool service.
func NewServer(svc *tools.Service, finder fastq.Finder, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:     svc,
		finder:  finder,
		logger:  logger,
		name:    "biomcp",
		version: version,
	}
}

// Serve reads newline-delimited requests from r and writes responses to
// w until EOF or ctx cancellation. Notifications (requests without an
// id) never get a response. A malformed line yields one parse-error
// response and the loop moves on to the next line.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	encoder := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if err := s.serveLine(ctx, encoder, trimmed); err != nil {
				return err
			}
		}
		if readErr != nil {
			return nil
		}
	}
}

func (s *Server) serveLine(ctx context.Context, encoder *json.Encoder, line string) error {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.logger.Warn("request parse failure", zap.Error(err))
		// The request id is unknowable here; JSON-RPC prescribes null.
		return encoder.Encode(errorResponse(nil, ParseError, "failed to parse request"))
	}

	resp := s.HandleRequest(ctx, &req)
	if resp == nil || req.ID == nil {
		return nil
	}
	if err := encoder.Encode(resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// HandleRequest processes one request. Nil means no response is due.
func (s *Server) HandleRequest(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.ID)
	case "tools/list":
		return resultResponse(req.ID, map[string]any{"tools": getAllTools()})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return resultResponse(req.ID, "pong")
	}

	if req.ID == nil {
		// Notification for an unknown method; nothing owed.
		return nil
	}
	return errorResponse(req.ID, MethodNotFound, "method not found: "+req.Method)
}

func (s *Server) handleInitialize(id any) *Response {
	return resultResponse(id, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, InvalidParams, "invalid tools/call parameters")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	s.logger.Debug("tool call", zap.String("tool", params.Name))

	payload, err := s.dispatch(ctx, params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, callErrorCode(err), err.Error())
	}
	return textResult(req.ID, payload)
}

var (
	errUnknownMCPTool = errors.New("unknown MCP tool")
	errInvalidArgs    = errors.New("invalid arguments")
)

// dispatch maps an MCP tool name onto a service operation.
func (s *Server) dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "list_jobs":
		return s.svc.List(), nil

	case "stop_job":
		jobID, err := stringArg(args, "job_id")
		if err != nil {
			return nil, err
		}
		return s.svc.Stop(jobID), nil

	case "cleanup_jobs":
		completedOnly := true
		if v, ok := args["completed_only"].(bool); ok {
			completedOnly = v
		}
		return s.svc.Cleanup(completedOnly), nil

	case "find_fastq_files":
		finder := s.finder
		if dir, _ := args["search_dir"].(string); dir != "" {
			finder = fastq.Finder{SearchDirs: []string{dir}}
		}
		filename, _ := args["filename"].(string)
		files, err := finder.Find(ctx, filename)
		if err != nil {
			return nil, err
		}
		if files == nil {
			files = []string{}
		}
		return map[string]any{"files": files, "count": len(files)}, nil
	}

	if tool, ok := strings.CutPrefix(name, "run_"); ok {
		res, err := s.svc.LaunchFromArgs(ctx, tool, args)
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	if tool, ok := strings.CutSuffix(name, "_status"); ok {
		if _, err := s.svc.Adapter(tool); err != nil {
			return nil, fmt.Errorf("%w: %s", errUnknownMCPTool, name)
		}
		jobID, err := stringArg(args, "job_id")
		if err != nil {
			return nil, err
		}
		return s.svc.Status(jobID), nil
	}

	if tool, ok := strings.CutPrefix(name, "install_"); ok {
		return s.svc.Install(ctx, tool)
	}

	if tool, found := strings.CutPrefix(name, "is_"); found {
		if tool, ok := strings.CutSuffix(tool, "_installed"); ok {
			return s.svc.Locate(ctx, tool)
		}
	}

	return nil, fmt.Errorf("%w: %s", errUnknownMCPTool, name)
}

// callErrorCode picks the JSON-RPC code for a failed tool call. Bad
// input and unknown names are InvalidParams; everything else is an
// internal failure.
func callErrorCode(err error) int {
	switch {
	case errors.Is(err, errUnknownMCPTool),
		errors.Is(err, errInvalidArgs),
		errors.Is(err, tools.ErrUnknownTool),
		errors.Is(err, tools.ErrInvalidParams),
		errors.Is(err, jobs.ErrDuplicateJob):
		return InvalidParams
	default:
		return InternalError
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s is required", errInvalidArgs, key)
	}
	return v, nil
}
