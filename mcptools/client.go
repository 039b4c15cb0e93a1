// Package mcptools discovers tools from MCP tool servers and wraps them
// as registry specs.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/voyagent/voyagent/registry"
)

// ServerConfig describes one stdio-launched tool server.
type ServerConfig struct {
	Name    string   `json:"name" mapstructure:"name"`
	Command string   `json:"command" mapstructure:"command"`
	Args    []string `json:"args,omitempty" mapstructure:"args"`
}

// Manager holds the live sessions to the tool servers that answered
// discovery, so they can be closed on shutdown.
type Manager struct {
	sessions []*mcpsdk.ClientSession
	logger   *zap.Logger
}

// Discover connects to each configured server, lists its tools, and
// registers them. A server that fails to connect or list is skipped with
// a warning: the rest of the system starts without its tools.
func Discover(ctx context.Context, servers []ServerConfig, reg *registry.Registry, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{logger: logger}

	for _, srv := range servers {
		session, specs, err := connect(ctx, srv)
		if err != nil {
			logger.Warn("tool server discovery failed, continuing without its tools",
				zap.String("server", srv.Name),
				zap.Error(err))
			continue
		}
		m.sessions = append(m.sessions, session)

		for _, spec := range specs {
			if err := reg.Register(spec); err != nil {
				logger.Warn("skipping discovered tool",
					zap.String("server", srv.Name),
					zap.String("tool", spec.Name),
					zap.Error(err))
				continue
			}
			logger.Info("registered remote tool",
				zap.String("server", srv.Name),
				zap.String("tool", spec.Name))
		}
	}

	return m
}

// Close shuts down all live tool-server sessions.
func (m *Manager) Close() error {
	var errs []error
	for _, session := range m.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func connect(ctx context.Context, srv ServerConfig) (*mcpsdk.ClientSession, []registry.ToolSpec, error) {
	if strings.TrimSpace(srv.Command) == "" {
		return nil, nil, fmt.Errorf("server %s: command is empty", srv.Name)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "voyagent", Version: "0.1.0"}, nil)
	// #nosec G204 -- the command comes from operator configuration, not user input
	cmd := exec.CommandContext(ctx, srv.Command, srv.Args...)
	transport := &mcpsdk.CommandTransport{Command: cmd}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	var specs []registry.ToolSpec
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			session.Close()
			return nil, nil, fmt.Errorf("list tools: %w", err)
		}
		specs = append(specs, toSpec(session, tool))
	}

	return session, specs, nil
}

// toSpec adapts a discovered MCP tool into a registry spec whose handler
// calls back through the live session.
func toSpec(session *mcpsdk.ClientSession, tool *mcpsdk.Tool) registry.ToolSpec {
	name := tool.Name
	return registry.ToolSpec{
		Name:        name,
		Description: tool.Description,
		Parameters:  schemaToMap(tool.InputSchema),
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			var argsMap map[string]any
			if len(args) > 0 {
				if err := json.Unmarshal(args, &argsMap); err != nil {
					return "", fmt.Errorf("decode arguments: %w", err)
				}
			}
			result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: argsMap})
			if err != nil {
				return "", err
			}
			text := contentText(result.Content)
			if result.IsError {
				return "", errors.New(text)
			}
			return text, nil
		},
	}
}

func schemaToMap(schema any) map[string]any {
	if schema == nil {
		return nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func contentText(content []mcpsdk.Content) string {
	var sb strings.Builder
	for _, c := range content {
		if t, ok := c.(*mcpsdk.TextContent); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}
