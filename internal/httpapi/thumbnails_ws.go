package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/vidranker/internal/protocol"
	"github.com/antoniostano/vidranker/internal/studio"
)

// handleThumbnailWS streams generation progress. Requests on one connection
// run one at a time in arrival order.
func (s *Server) handleThumbnailWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 64)
	requests := make(chan any, 8)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.ObserveWSMessage("outbound", string(t))
				}
			}
		}
	}()

	send := func(msg any) {
		select {
		case <-ctx.Done():
		case outbound <- msg:
		}
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for req := range requests {
			if ctx.Err() != nil {
				continue
			}
			s.serveWSRequest(ctx, req, send)
		}
	}()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			send(protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			})
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.ObserveWSMessage("inbound", string(t))
		}

		select {
		case <-ctx.Done():
			break readLoop
		case requests <- parsed:
		default:
			send(protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				RequestID: requestIDOf(parsed),
				Code:      "busy",
				Retryable: true,
				Detail:    "too many queued requests on this connection",
			})
		}
	}

	cancel()
	close(requests)
	<-workerDone
	<-writerDone
}

func (s *Server) serveWSRequest(ctx context.Context, req any, send func(any)) {
	switch m := req.(type) {
	case protocol.ThumbnailRequest:
		id := ensureRequestID(m.RequestID)
		seq := 0
		out, err := s.studio.GenerateThumbnail(ctx, m.Prompt, m.Style, func(msg string) {
			seq++
			send(protocol.GenerationStatus{
				Type:      protocol.TypeGenerationStatus,
				RequestID: id,
				Seq:       seq,
				Message:   msg,
			})
		})
		if err != nil {
			send(wsError(id, err))
			return
		}
		res := protocol.GenerationResult{
			Type:           protocol.TypeGenerationResult,
			RequestID:      id,
			Success:        out.Result.Success,
			ImageReference: out.Result.ImageReference,
			MethodUsed:     out.Result.Method,
			ServiceName:    out.Result.ServiceName,
			ErrorDetail:    out.Result.ErrorDetail,
		}
		if out.Record != nil {
			res.RecordID = out.Record.ID
		}
		send(res)
	case protocol.SEORequest:
		id := ensureRequestID(m.RequestID)
		out, err := s.studio.GenerateSEO(ctx, m.Topic)
		if err != nil {
			send(wsError(id, err))
			return
		}
		send(protocol.SEOResult{
			Type:        protocol.TypeSEOResult,
			RequestID:   id,
			Tags:        out.Result.Tags,
			Title:       out.Result.Title,
			Description: out.Result.Description,
			Hashtags:    out.Result.Hashtags,
			Source:      string(out.Result.Source),
			RecordID:    out.Record.ID,
		})
	}
}

func wsError(requestID string, err error) protocol.ErrorEvent {
	code := "internal_error"
	switch {
	case errors.Is(err, studio.ErrEmptyTopic), errors.Is(err, studio.ErrEmptyPrompt):
		code = "invalid_request"
	case errors.Is(err, context.Canceled):
		code = "cancelled"
	}
	return protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		RequestID: requestID,
		Code:      code,
		Detail:    err.Error(),
	}
}

func ensureRequestID(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return uuid.NewString()
}

func requestIDOf(v any) string {
	switch m := v.(type) {
	case protocol.ThumbnailRequest:
		return m.RequestID
	case protocol.SEORequest:
		return m.RequestID
	default:
		return ""
	}
}
