package remote

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// BatchPath is the presence query endpoint.
	BatchPath = "/presence/batch"
	// ObjectsPath records (POST) and lists (GET) presence records.
	ObjectsPath = "/presence/objects"

	// MaxBatchOIDs bounds the oids accepted in one request. The client splits
	// larger batches.
	MaxBatchOIDs = 10000

	maxRequestBytes  = 8 << 20
	maxResponseBytes = 8 << 20
	compressMinBytes = 1024
)

// BatchRequest asks which oids a store holds.
type BatchRequest struct {
	Store string   `json:"store"`
	OIDs  []string `json:"oids"`
}

// BatchResponse lists the requested oids the store holds.
type BatchResponse struct {
	Present []string `json:"present"`
}

// ObjectRecord is one presence record on the wire.
type ObjectRecord struct {
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

// ObjectsRequest records objects as present in a store.
type ObjectsRequest struct {
	Store   string         `json:"store"`
	Objects []ObjectRecord `json:"objects"`
}

// ObjectsResponse lists the records of a store.
type ObjectsResponse struct {
	Objects []ObjectRecord `json:"objects"`
}

// RemoteError is a structured error returned by a presence server.
type RemoteError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Detail     string `json:"detail,omitempty"`
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("remote error (%d): %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("remote error (%d): %s", e.StatusCode, e.Message)
}

// tryParseRemoteError attempts to parse a JSON error body, falling back to
// the raw body text.
func tryParseRemoteError(statusCode int, body []byte) *RemoteError {
	var re RemoteError
	if err := json.Unmarshal(body, &re); err == nil && re.Message != "" {
		re.StatusCode = statusCode
		return &re
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "unexpected status"
	}
	return &RemoteError{StatusCode: statusCode, Message: msg}
}
