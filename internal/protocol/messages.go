package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeThumbnailRequest MessageType = "thumbnail_request"
	TypeSEORequest       MessageType = "seo_request"
	TypeGenerationStatus MessageType = "generation_status"
	TypeGenerationResult MessageType = "generation_result"
	TypeSEOResult        MessageType = "seo_result"
	TypeErrorEvent       MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type ThumbnailRequest struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id"`
	Prompt    string      `json:"prompt"`
	Style     string      `json:"style"`
}

type SEORequest struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id"`
	Topic     string      `json:"topic"`
}

// GenerationStatus carries one progress message; Seq starts at 1 per request.
type GenerationStatus struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id"`
	Seq       int         `json:"seq"`
	Message   string      `json:"message"`
}

type GenerationResult struct {
	Type           MessageType `json:"type"`
	RequestID      string      `json:"request_id"`
	Success        bool        `json:"success"`
	ImageReference string      `json:"image_reference,omitempty"`
	MethodUsed     string      `json:"method_used"`
	ServiceName    string      `json:"service_name,omitempty"`
	ErrorDetail    string      `json:"error_detail,omitempty"`
	RecordID       string      `json:"record_id,omitempty"`
}

type SEOResult struct {
	Type        MessageType `json:"type"`
	RequestID   string      `json:"request_id"`
	Tags        []string    `json:"tags"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Hashtags    []string    `json:"hashtags"`
	Source      string      `json:"source"`
	RecordID    string      `json:"record_id"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates one inbound frame. The request id
// is optional; the server assigns one when it is empty.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeThumbnailRequest:
		var msg ThumbnailRequest
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Prompt) == "" {
			return nil, errors.New("invalid thumbnail_request: prompt is required")
		}
		return msg, nil
	case TypeSEORequest:
		var msg SEORequest
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Topic) == "" {
			return nil, errors.New("invalid seo_request: topic is required")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
