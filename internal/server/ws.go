package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/xielang86/mindora-user/internal/model"
)

// WSHandler upgrades every request to a WebSocket and answers each message
// with exactly one response, in receive order.
func (s *Server) WSHandler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[ws] accept error: %v", err)
		return
	}
	conn.SetReadLimit(s.opts.ReadLimit)

	connID := ulid.Make().String()
	log.Printf("[ws] client connected: %s (%s)", connID, r.RemoteAddr)
	defer func() {
		conn.CloseNow()
		log.Printf("[ws] client disconnected: %s", connID)
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if !isClosure(err) && ctx.Err() == nil {
				log.Printf("[ws] %s read error: %v", connID, err)
			}
			return
		}

		// A request that has been read is processed to completion even if the
		// peer goes away meanwhile.
		resp := s.router.Dispatch(context.WithoutCancel(ctx), data)
		if resp.Status() == model.StatusError {
			log.Printf("[ws] %s request failed: %T", connID, resp)
		}

		out, err := model.Encode(resp)
		if err != nil {
			log.Printf("[ws] %s encode error: %v", connID, err)
			return
		}

		wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
		err = conn.Write(wctx, websocket.MessageText, out)
		cancel()
		if err != nil {
			log.Printf("[ws] %s write error: %v", connID, err)
			return
		}
	}
}

func isClosure(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
