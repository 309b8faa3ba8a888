package model

import (
	"encoding/json"
	"fmt"
)

// Response statuses on the wire.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// ErrorKind names the failure class of an error response.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindStorage    ErrorKind = "storage"
	KindProtocol   ErrorKind = "protocol"
)

// Response is the outcome of one request. The concrete types below are the
// only implementations.
type Response interface {
	Status() string
	wire() WireResponse
}

// WireResponse is the serialized shape shared by every response.
type WireResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Error   ErrorKind    `json:"error,omitempty"`
	Profile *UserProfile `json:"profile,omitempty"`
}

// Encode serializes r to its wire form.
func Encode(r Response) ([]byte, error) {
	return json.Marshal(r.wire())
}

// QuerySuccess carries a found profile.
type QuerySuccess struct {
	Profile *UserProfile
}

func (QuerySuccess) Status() string { return StatusSuccess }

func (r QuerySuccess) wire() WireResponse {
	return WireResponse{Status: StatusSuccess, Profile: r.Profile}
}

// UpdateSuccess reports an applied update.
type UpdateSuccess struct {
	UID string
}

func (UpdateSuccess) Status() string { return StatusSuccess }

func (r UpdateSuccess) wire() WireResponse {
	return WireResponse{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Behavior data for uid '%s' updated", r.UID),
	}
}

// NotFound reports a query for a uid with no stored record.
type NotFound struct {
	UID string
}

func (NotFound) Status() string { return StatusNotFound }

func (r NotFound) wire() WireResponse {
	return WireResponse{
		Status:  StatusNotFound,
		Message: fmt.Sprintf("User with uid '%s' not found", r.UID),
	}
}

// ValidationError rejects a request before any storage access.
type ValidationError struct {
	Message string
}

func (ValidationError) Status() string { return StatusError }

func (r ValidationError) wire() WireResponse {
	return WireResponse{Status: StatusError, Message: r.Message, Error: KindValidation}
}

// StorageError reports a failed read or write; an update is not applied.
type StorageError struct {
	Message string
}

func (StorageError) Status() string { return StatusError }

func (r StorageError) wire() WireResponse {
	return WireResponse{Status: StatusError, Message: r.Message, Error: KindStorage}
}

// ProtocolError reports a payload that is not a valid request.
type ProtocolError struct {
	Message string
}

func (ProtocolError) Status() string { return StatusError }

func (r ProtocolError) wire() WireResponse {
	return WireResponse{Status: StatusError, Message: r.Message, Error: KindProtocol}
}
