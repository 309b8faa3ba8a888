package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/xielang86/mindora-user/internal/model"
)

// HTTPHandler returns the HTTP API:
//
//	POST /query_profile   body is a QueryProfileRequest
//	POST /update_profile  body is an UpdateProfileRequest, flat or nested
//	POST /                body is an {"action": ...} envelope
//	GET  /healthz
func (s *Server) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /query_profile", s.handleAction(model.ActionQueryProfile))
	mux.HandleFunc("POST /update_profile", s.handleAction(model.ActionUpdateProfile))
	mux.HandleFunc("POST /{$}", s.handleEnvelope)
	mux.HandleFunc("GET /healthz", handleHealth)
	return withRequestID(mux)
}

func (s *Server) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		writeResponse(w, r, s.router.DispatchAction(r.Context(), action, body))
	}
}

func (s *Server) handleEnvelope(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	writeResponse(w, r, s.router.Dispatch(r.Context(), body))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.ReadLimit))
	if err == nil {
		return body, true
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeResponseCode(w, r, http.StatusRequestEntityTooLarge,
			model.ProtocolError{Message: "Invalid request format: request body too large"})
		return nil, false
	}
	writeResponse(w, r, model.ProtocolError{Message: "Invalid request format: " + err.Error()})
	return nil, false
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp model.Response) {
	writeResponseCode(w, r, statusCode(resp), resp)
}

func writeResponseCode(w http.ResponseWriter, r *http.Request, code int, resp model.Response) {
	out, err := model.Encode(resp)
	if err != nil {
		log.Printf("[http] %s encode error: %v", w.Header().Get(requestIDHeader), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if code >= http.StatusInternalServerError {
		log.Printf("[http] %s %s %s: %d", w.Header().Get(requestIDHeader), r.Method, r.URL.Path, code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(out)
}

func statusCode(resp model.Response) int {
	switch resp.(type) {
	case model.NotFound:
		return http.StatusNotFound
	case model.ValidationError, model.ProtocolError:
		return http.StatusBadRequest
	case model.StorageError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

const requestIDHeader = "X-Request-Id"

// withRequestID tags each request with a ULID, echoing a caller-supplied one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
