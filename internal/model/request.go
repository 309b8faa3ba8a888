package model

import (
	"encoding/json"
	"errors"
)

// Request actions carried in the "action" field of an envelope.
const (
	ActionQueryProfile  = "query_profile"
	ActionUpdateProfile = "update_profile"
)

// ErrUnknownAction is returned when an envelope names no known action.
var ErrUnknownAction = errors.New("invalid action")

// DecodeError reports a payload that could not be decoded as a request.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "invalid request format: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Request is a decoded QueryProfileRequest or UpdateProfileRequest.
type Request interface {
	Action() string
}

// QueryProfileRequest asks for the stored profile of UID.
type QueryProfileRequest struct {
	UID string `json:"uid"`
}

func (QueryProfileRequest) Action() string { return ActionQueryProfile }

// UnmarshalJSON leaves UID empty when the field is missing or not a string so
// that validation, not decoding, rejects it.
func (r *QueryProfileRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		UID json.RawMessage `json:"uid"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.UID = decodeUID(raw.UID)
	return nil
}

// UpdateProfileRequest carries a partial profile to merge into UID's record.
// Every field except UID is optional.
type UpdateProfileRequest struct {
	UID             string              `json:"uid"`
	Embedding       []float64           `json:"embedding,omitempty"`
	LongTermProfile []WeightedLabel     `json:"long_term_profile,omitempty"`
	Behaviors       map[string][]Sample `json:"behaviors,omitempty"`
}

func (UpdateProfileRequest) Action() string { return ActionUpdateProfile }

// UnmarshalJSON accepts the flat request object, the legacy "uid_emb" name for
// the embedding, and the bulk loader's nested {"user_profile": {...}} form.
func (r *UpdateProfileRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		UID             json.RawMessage     `json:"uid"`
		Embedding       []float64           `json:"embedding"`
		LegacyEmbedding []float64           `json:"uid_emb"`
		LongTermProfile []WeightedLabel     `json:"long_term_profile"`
		Behaviors       map[string][]Sample `json:"behaviors"`
		UserProfile     json.RawMessage     `json:"user_profile"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.UserProfile) > 0 && string(raw.UserProfile) != "null" {
		return r.UnmarshalJSON(raw.UserProfile)
	}

	r.UID = decodeUID(raw.UID)
	r.Embedding = raw.Embedding
	if r.Embedding == nil {
		r.Embedding = raw.LegacyEmbedding
	}
	r.LongTermProfile = raw.LongTermProfile
	r.Behaviors = raw.Behaviors
	return nil
}

func decodeUID(raw json.RawMessage) string {
	var uid string
	if len(raw) == 0 || json.Unmarshal(raw, &uid) != nil {
		return ""
	}
	return uid
}

// Decode parses an envelope of the form {"action": "...", ...}.
func Decode(data []byte) (Request, error) {
	var env struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return DecodeAction(env.Action, data)
}

// DecodeAction parses data as the request type named by action.
func DecodeAction(action string, data []byte) (Request, error) {
	switch action {
	case ActionQueryProfile:
		var req QueryProfileRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, &DecodeError{Err: err}
		}
		return req, nil
	case ActionUpdateProfile:
		var req UpdateProfileRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, &DecodeError{Err: err}
		}
		return req, nil
	default:
		return nil, ErrUnknownAction
	}
}
