// Package server owns the adapter's local socket and the request/response
// dispatch loop.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
	"github.com/victorarias/modelbridge/bridge/tools"
)

// MaxPayloadBytes caps one request payload.
const MaxPayloadBytes = 1 << 20

// Config assembles a Server.
type Config struct {
	SocketPath string
	Registry   *bridge.Registry
	Catalog    *tools.Catalog
	Logger     *zap.Logger
}

// Server accepts one connection at a time on a local unix socket and answers
// exactly one request per connection. It is a deliberate single-orchestrator
// design: not safe for multiple simultaneous clients.
type Server struct {
	path     string
	registry *bridge.Registry
	catalog  *tools.Catalog
	log      *zap.Logger
}

// New builds a server from config.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		path:     cfg.SocketPath,
		registry: cfg.Registry,
		catalog:  cfg.Catalog,
		log:      log,
	}
}

// ListenAndServe binds the socket and serves until ctx is cancelled. A stale
// socket file from a prior run is removed before binding, and the file is
// removed again on shutdown so a restarted instance can rebind the same path.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := removeStale(s.path); err != nil {
		return err
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", s.path, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.path)
	}()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.log.Info("listening", zap.String("socket", s.path))
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.log.Info("listener closed")
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		// Strictly sequential: fully handle one connection before accepting
		// the next.
		s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	connID := uuid.NewString()
	log := s.log.With(zap.String("conn", connID))

	payload, err := io.ReadAll(io.LimitReader(conn, MaxPayloadBytes))
	if err != nil {
		log.Warn("read failed", zap.Error(err))
		return
	}
	if len(payload) == 0 {
		// Empty payload: ignore and wait for the next connection.
		return
	}

	response := s.dispatch(ctx, log, payload)
	data, err := json.Marshal(response)
	if err != nil {
		log.Error("response marshal failed", zap.Error(err))
		data, _ = json.Marshal(errorResponse{Error: "internal error"})
	}
	if _, err := conn.Write(data); err != nil {
		log.Warn("write failed", zap.Error(err))
	}
}

// dispatch decodes and routes one request. Every failure in here — malformed
// payload, unknown ids, vendor errors, even a panic — converges to an error
// response; one bad request must never take the server down.
func (s *Server) dispatch(ctx context.Context, log *zap.Logger, payload []byte) (response any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("dispatch panic", zap.Any("panic", r))
			response = errorResponse{Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorResponse{Error: "invalid request: " + err.Error()}
	}
	log.Debug("request", zap.String("action", req.Action))

	out, err := s.route(ctx, req)
	if err != nil {
		log.Warn("request failed", zap.String("action", req.Action), zap.Error(err))
		return errorResponse{Error: err.Error()}
	}
	return out
}

func (s *Server) route(ctx context.Context, req Request) (any, error) {
	switch req.Action {
	case "get_providers":
		return s.getProviders(), nil

	case "get_provider_options":
		module, err := s.registry.Get(req.Provider)
		if err != nil {
			return nil, err
		}
		return optionsResponse{Provider: module.Name(), Options: optionInfos(module)}, nil

	case "set_provider_option":
		module, err := s.registry.Get(req.Provider)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.OptionID) == "" {
			return nil, errors.New("option_id is required")
		}
		if err := module.SetOption(req.OptionID, req.Value); err != nil {
			return nil, err
		}
		return okResponse{OK: true}, nil

	case "chat":
		module, err := s.registry.Get(req.Provider)
		if err != nil {
			return nil, err
		}
		reply, err := module.Chat(ctx, req.Messages)
		if err != nil {
			return nil, err
		}
		resp := chatResponse{Reply: reply.Message}
		if !reply.Usage.IsZero() {
			u := reply.Usage
			resp.Usage = &u
		}
		return resp, nil

	case "run_mode_test":
		module, err := s.registry.Get(req.Provider)
		if err != nil {
			return nil, err
		}
		result, err := tools.RunModeTest(ctx, module, message.Mode(req.Mode))
		if err != nil {
			return nil, err
		}
		return resultResponse{Result: result}, nil

	case "list_tools":
		return toolsResponse{Tools: s.catalog.List()}, nil

	case "run_tool":
		var module bridge.Provider
		if strings.TrimSpace(req.Provider) != "" {
			found, err := s.registry.Get(req.Provider)
			if err != nil {
				return nil, err
			}
			module = found
		}
		result, err := s.catalog.Run(ctx, req.ToolID, module)
		if err != nil {
			return nil, err
		}
		return resultResponse{Result: result}, nil

	default:
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}
}

func (s *Server) getProviders() providersResponse {
	modules := s.registry.List()
	out := providersResponse{Providers: make([]providerInfo, 0, len(modules))}
	for _, module := range modules {
		out.Providers = append(out.Providers, providerInfo{
			ID:         strings.ToLower(module.Name()),
			Name:       module.Name(),
			InputModes: module.InputModes(),
			Options:    optionInfos(module),
		})
	}
	return out
}

// removeStale deletes a leftover socket file from a prior run.
func removeStale(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("server: remove stale socket %s: %w", path, err)
}
