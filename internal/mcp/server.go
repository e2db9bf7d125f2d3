// Package mcp exposes the analysis core as MCP tools over a JSON-RPC 2.0
// stdio loop, so agent clients can run phase analyses against previously
// fetched snapshots.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"ai-impact/internal/compare"
	"ai-impact/internal/config"
	"ai-impact/internal/metrics"
	"ai-impact/internal/snapshot"
)

// JSONRPCRequest represents a standard MCP/JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a standard MCP/JSON-RPC response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Server holds the state for the MCP server.
type Server struct {
	phases []config.Phase
	store  *snapshot.Store
}

// NewServer creates a new MCP server over the configured phases and the
// snapshot store.
func NewServer(phases []config.Phase, store *snapshot.Store) *Server {
	return &Server{phases: phases, store: store}
}

// Serve starts the JSON-RPC loop over Stdio.
func (s *Server) Serve() error {
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal request")
			continue
		}

		s.handleRequest(req)
	}
}

func (s *Server) handleRequest(req JSONRPCRequest) {
	var result interface{}
	var errRes interface{}

	switch req.Method {
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]interface{}{},
			"serverInfo": map[string]interface{}{
				"name":    "ai-impact",
				"version": "0.1.0",
			},
		}
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, errRes = s.callTool(req.Params)
	default:
		errRes = map[string]interface{}{
			"code":    -32601,
			"message": fmt.Sprintf("Method %s not found", req.Method),
		}
	}

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   errRes,
	}

	out, _ := json.Marshal(resp)
	fmt.Fprintf(os.Stdout, "%s\n", out)
}

func (s *Server) listTools() interface{} {
	return map[string]interface{}{
		"tools": []interface{}{
			map[string]interface{}{
				"name":        "list_phases",
				"description": "List the configured analysis phases and their query windows.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{},
				},
			},
			map[string]interface{}{
				"name":        "analyze_phase",
				"description": "Compute velocity metrics (closure time, state dwell, re-entry, throughput, AI adoption) for one phase from its snapshot.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"phase":  map[string]interface{}{"type": "string", "description": "Phase name as configured"},
						"source": map[string]interface{}{"type": "string", "enum": []string{"jira", "pr"}},
						"actor":  map[string]interface{}{"type": "string", "description": "Optional assignee/author restriction"},
					},
					"required": []string{"phase", "source"},
				},
			},
			map[string]interface{}{
				"name":        "compare_phases",
				"description": "Build the cross-phase comparison table with trend annotations over all configured phases.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"source": map[string]interface{}{"type": "string", "enum": []string{"jira", "pr"}},
						"actor":  map[string]interface{}{"type": "string"},
					},
					"required": []string{"source"},
				},
			},
		},
	}
}

func (s *Server) callTool(params json.RawMessage) (interface{}, interface{}) {
	var call struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, map[string]interface{}{"code": -32602, "message": "Invalid params"}
	}

	var data interface{}
	var err error

	switch call.Name {
	case "list_phases":
		data = s.phases
	case "analyze_phase":
		phase, _ := call.Arguments["phase"].(string)
		source, _ := call.Arguments["source"].(string)
		actor, _ := call.Arguments["actor"].(string)
		data, err = s.handleAnalyzePhase(phase, source, actor)
	case "compare_phases":
		source, _ := call.Arguments["source"].(string)
		actor, _ := call.Arguments["actor"].(string)
		data, err = s.handleComparePhases(source, actor)
	default:
		return nil, map[string]interface{}{"code": -32601, "message": "Tool not found"}
	}

	if err != nil {
		return nil, map[string]interface{}{"code": -32000, "message": err.Error()}
	}

	return map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": formatResult(data),
			},
		},
	}, nil
}

func (s *Server) handleAnalyzePhase(phase, source, actor string) (interface{}, error) {
	items, err := s.store.Load(phase, source)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no snapshot for phase %q (source %s); fetch it first", phase, source)
	}
	items = metrics.FilterByActor(items, actor)
	if len(items) == 0 {
		return nil, fmt.Errorf("no items for actor %q in phase %q", actor, phase)
	}
	return metrics.Aggregate(items, time.Now().UTC()), nil
}

func (s *Server) handleComparePhases(source, actor string) (interface{}, error) {
	now := time.Now().UTC()
	var named []compare.Named
	for _, phase := range s.phases {
		items, err := s.store.Load(phase.Name, source)
		if err != nil {
			return nil, err
		}
		items = metrics.FilterByActor(items, actor)
		named = append(named, compare.Named{Name: phase.Name, M: metrics.Aggregate(items, now)})
	}
	return compare.Compare(named), nil
}

func formatResult(data interface{}) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}
