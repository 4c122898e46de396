package compiler

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
	"github.com/wippyai/component-runtime/parser"
)

// Service actions.
const (
	ActionInit    = "init"
	ActionExecute = "execute"
)

// ServiceRequest is a message to the compiler worker.
type ServiceRequest struct {
	Action          string              `json:"action"`
	ComponentID     string              `json:"componentId,omitempty"`
	RendererVersion string              `json:"rendererVersion,omitempty"`
	Trust           component.TrustMode `json:"trust,omitempty"`
}

// ServiceResponse answers an execute request. Error is set instead of a
// source when compilation failed.
type ServiceResponse struct {
	ComponentID     string                `json:"componentId"`
	ComponentSource string                `json:"componentSource"`
	Error           string                `json:"error,omitempty"`
	ImportedModules []parser.ModuleImport `json:"importedModules"`
	Children        []ChildRef            `json:"children,omitempty"`
}

// Service is the request/response front of a Compiler, as run by a
// compiler worker. init must precede execute.
type Service struct {
	compiler        *Compiler
	rendererVersion string
	mu              sync.RWMutex
	initialized     bool
}

// NewService wraps c.
func NewService(c *Compiler) *Service {
	return &Service{compiler: c}
}

// RendererVersion returns the version recorded by the last init.
func (s *Service) RendererVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rendererVersion
}

// Handle processes one request. init returns an empty response.
func (s *Service) Handle(ctx context.Context, req ServiceRequest) ServiceResponse {
	switch req.Action {
	case ActionInit:
		s.mu.Lock()
		s.rendererVersion = req.RendererVersion
		s.initialized = true
		s.mu.Unlock()
		s.compiler.Reset()
		s.compiler.logger.Info("compiler initialized", zap.String("renderer_version", req.RendererVersion))
		return ServiceResponse{}

	case ActionExecute:
		s.mu.RLock()
		ready := s.initialized
		s.mu.RUnlock()
		if !ready {
			return errorResponse(req.ComponentID, errors.NotInitialized(errors.PhaseCompile, req.ComponentID))
		}

		res, err := s.compiler.Compile(ctx, Request{ComponentID: req.ComponentID, Trust: req.Trust})
		if err != nil {
			s.compiler.logger.Error("compile failed",
				zap.String("component", req.ComponentID),
				zap.Error(err))
			return errorResponse(req.ComponentID, err)
		}
		return ServiceResponse{
			ComponentID:     req.ComponentID,
			ComponentSource: res.Source,
			ImportedModules: res.Imports,
			Children:        res.Children,
		}
	}

	return errorResponse(req.ComponentID, errors.New(errors.PhaseProtocol, errors.KindUnknownMessage).
		Value(req.Action).
		Detail("unknown compiler action %q", req.Action).
		Build())
}

// HandleJSON decodes a request, handles it and encodes the response.
func (s *Service) HandleJSON(ctx context.Context, data []byte) ([]byte, error) {
	var req ServiceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.Wrap(errors.PhaseProtocol, errors.KindInvalidData, err, "decode compiler request")
	}
	return json.Marshal(s.Handle(ctx, req))
}

func errorResponse(id string, err error) ServiceResponse {
	return ServiceResponse{ComponentID: id, Error: err.Error()}
}
