// Package router dispatches profile requests to the store and merge engine
// and shapes every outcome into a typed response.
package router

import (
	"context"
	"errors"
	"log"

	"github.com/xielang86/mindora-user/internal/engine"
	"github.com/xielang86/mindora-user/internal/model"
	"github.com/xielang86/mindora-user/internal/store"
)

const invalidUIDMessage = "Missing or invalid 'uid'"

// Router serves queries from the store and updates through the engine. It
// never returns an error: each call yields exactly one response.
type Router struct {
	engine *engine.Engine
	store  store.Store
}

// New returns a Router. s must be the store e writes through.
func New(e *engine.Engine, s store.Store) *Router {
	return &Router{engine: e, store: s}
}

// Query returns the stored profile for req.UID.
func (r *Router) Query(ctx context.Context, req model.QueryProfileRequest) model.Response {
	if req.UID == "" {
		return model.ValidationError{Message: invalidUIDMessage}
	}

	p, ok, err := r.store.Get(ctx, req.UID)
	if err != nil {
		log.Printf("[router] query uid=%s: %v", req.UID, err)
		return model.StorageError{Message: err.Error()}
	}
	if !ok {
		return model.NotFound{UID: req.UID}
	}
	return model.QuerySuccess{Profile: p}
}

// Update merges req into the stored profile.
func (r *Router) Update(ctx context.Context, req model.UpdateProfileRequest) model.Response {
	err := r.engine.Update(ctx, req)
	switch {
	case err == nil:
		return model.UpdateSuccess{UID: req.UID}
	case errors.Is(err, engine.ErrInvalidUID):
		return model.ValidationError{Message: invalidUIDMessage}
	default:
		log.Printf("[router] update uid=%s: %v", req.UID, err)
		return model.StorageError{Message: err.Error()}
	}
}

// Handle routes a decoded request.
func (r *Router) Handle(ctx context.Context, req model.Request) model.Response {
	switch req := req.(type) {
	case model.QueryProfileRequest:
		return r.Query(ctx, req)
	case model.UpdateProfileRequest:
		return r.Update(ctx, req)
	default:
		return model.ProtocolError{Message: "Invalid action"}
	}
}

// Dispatch decodes an {"action": ...} envelope and routes it.
func (r *Router) Dispatch(ctx context.Context, data []byte) model.Response {
	req, err := model.Decode(data)
	if err != nil {
		return protocolError(err)
	}
	return r.Handle(ctx, req)
}

// DispatchAction decodes data as the request named by action and routes it.
func (r *Router) DispatchAction(ctx context.Context, action string, data []byte) model.Response {
	req, err := model.DecodeAction(action, data)
	if err != nil {
		return protocolError(err)
	}
	return r.Handle(ctx, req)
}

func protocolError(err error) model.Response {
	var de *model.DecodeError
	if errors.As(err, &de) {
		return model.ProtocolError{Message: "Invalid request format: " + de.Err.Error()}
	}
	return model.ProtocolError{Message: "Invalid action"}
}
