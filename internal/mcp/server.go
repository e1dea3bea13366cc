// Package mcp provides an MCP (Model Context Protocol) server exposing the
// simulator as tools.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/randosim/internal/config"
	"github.com/nvandessel/randosim/internal/pathutil"
	"github.com/nvandessel/randosim/internal/ratelimit"
)

// Server wraps the MCP SDK server and provides randosim tools.
type Server struct {
	server       *sdk.Server
	settings     *config.RandosimConfig
	logger       *slog.Logger
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	allowlist    *pathutil.Allowlist
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "randosim")
	Version string // Server version

	// Settings supplies worker, seed and MCP limits. Nil uses defaults.
	Settings *config.RandosimConfig

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	// AllowedDirs confines document paths given by clients. Empty allows
	// any path.
	AllowedDirs []string

	// Logger receives operational logging. Nil discards it.
	Logger *slog.Logger
}

// NewServer creates a new MCP server with randosim tools.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	var allowlist *pathutil.Allowlist
	if len(cfg.AllowedDirs) > 0 {
		var err error
		if allowlist, err = pathutil.NewAllowlist(cfg.AllowedDirs...); err != nil {
			return nil, fmt.Errorf("invalid allowed directories: %w", err)
		}
	}

	s := &Server{
		server:       mcpServer,
		settings:     settings,
		logger:       logger,
		toolLimiters: ratelimit.NewToolLimiters(settings.MCP.SimulatePerMinute),
		allowlist:    allowlist,
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	if err := s.registerTools(); err != nil {
		s.auditLogger.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
