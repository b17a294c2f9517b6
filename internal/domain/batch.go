package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BatchMessage is an unprocessed record from the batch request topic.
type BatchMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// GeocodeRequest asks for one address to be resolved in batch.
type GeocodeRequest struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

// GeocodeResult is the batch answer to a GeocodeRequest. Resolution is nil
// when the request was rejected; Error then says why.
type GeocodeResult struct {
	ID          string         `json:"id"`
	Query       string         `json:"query"`
	Resolution  *GeoResolution `json:"resolution,omitempty"`
	Error       string         `json:"error,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// Outcome labels the result: matched, unmatched, or invalid.
func (r GeocodeResult) Outcome() string {
	switch {
	case r.Resolution == nil:
		return "invalid"
	case r.Resolution.Matched():
		return "matched"
	default:
		return "unmatched"
	}
}

// ErrMalformedRequest marks batch messages that cannot be decoded.
var ErrMalformedRequest = errors.New("malformed geocode request")

// ParseGeocodeRequest decodes a batch message. A bare JSON string or plain
// text body is taken as the query. A missing id falls back to the message key.
func ParseGeocodeRequest(msg BatchMessage) (GeocodeRequest, error) {
	body := strings.TrimSpace(string(msg.Value))
	if body == "" {
		return GeocodeRequest{}, fmt.Errorf("%w: empty body", ErrMalformedRequest)
	}

	var req GeocodeRequest
	switch body[0] {
	case '{':
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			return GeocodeRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}
	case '"':
		if err := json.Unmarshal(msg.Value, &req.Query); err != nil {
			return GeocodeRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}
	case '[':
		return GeocodeRequest{}, fmt.Errorf("%w: array body", ErrMalformedRequest)
	default:
		req.Query = body
	}

	if req.ID == "" {
		req.ID = string(msg.Key)
	}
	return req, nil
}
