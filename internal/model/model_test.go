package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleWireForm(t *testing.T) {
	s := Sample{Timestamp: 1758101400, Value: json.RawMessage(`"product_page_1"`)}

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[1758101400,"product_page_1"]`, string(b))

	var got Sample
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, s, got)
}

func TestSampleRejectsBadShapes(t *testing.T) {
	for _, in := range []string{`[1]`, `[1,2,3]`, `{"ts":1}`, `["x",1]`, `[1.5,"v"]`} {
		var s Sample
		assert.Error(t, json.Unmarshal([]byte(in), &s), in)
	}
}

func TestSampleNilValueEncodesNull(t *testing.T) {
	b, err := json.Marshal(Sample{Timestamp: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `[7,null]`, string(b))
}

func TestWeightedLabelWireForm(t *testing.T) {
	var w WeightedLabel
	require.NoError(t, json.Unmarshal([]byte(`["sports", 0.75]`), &w))
	assert.Equal(t, WeightedLabel{Label: "sports", Weight: 0.75}, w)

	b, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `["sports",0.75]`, string(b))
}

func TestNewProfileHasDefaultChannels(t *testing.T) {
	p := NewProfile("u1", DefaultChannels)

	assert.Equal(t, "u1", p.UID)
	assert.Empty(t, p.Embedding)
	assert.Empty(t, p.LongTermProfile)
	assert.Len(t, p.Behaviors, len(DefaultChannels))
	for _, ch := range DefaultChannels {
		assert.NotNil(t, p.Behaviors[ch], ch)
	}

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"embedding":[]`)
}

func TestDecodeQuery(t *testing.T) {
	req, err := Decode([]byte(`{"action":"query_profile","uid":"client007"}`))
	require.NoError(t, err)
	assert.Equal(t, QueryProfileRequest{UID: "client007"}, req)
}

func TestDecodeNonStringUIDIsEmpty(t *testing.T) {
	for _, in := range []string{
		`{"action":"query_profile"}`,
		`{"action":"query_profile","uid":null}`,
		`{"action":"query_profile","uid":42}`,
		`{"action":"update_profile","uid":["a"]}`,
	} {
		req, err := Decode([]byte(in))
		require.NoError(t, err, in)
		switch r := req.(type) {
		case QueryProfileRequest:
			assert.Empty(t, r.UID, in)
		case UpdateProfileRequest:
			assert.Empty(t, r.UID, in)
		default:
			t.Fatalf("unexpected request type %T", req)
		}
	}
}

func TestDecodeUpdate(t *testing.T) {
	in := `{
		"action": "update_profile",
		"uid": "client007",
		"embedding": [0.1, 0.2],
		"long_term_profile": [["music", 0.5]],
		"behaviors": {"clicks": [[1758101430, "checkout_button"], [1758101400, "product_page_1"]]}
	}`

	req, err := Decode([]byte(in))
	require.NoError(t, err)
	upd, ok := req.(UpdateProfileRequest)
	require.True(t, ok)
	assert.Equal(t, "client007", upd.UID)
	assert.Equal(t, []float64{0.1, 0.2}, upd.Embedding)
	assert.Equal(t, []WeightedLabel{{Label: "music", Weight: 0.5}}, upd.LongTermProfile)
	require.Len(t, upd.Behaviors["clicks"], 2)
	assert.Equal(t, int64(1758101430), upd.Behaviors["clicks"][0].Timestamp)
}

func TestDecodeUpdateNestedAndLegacyForms(t *testing.T) {
	nested := `{"action":"update_profile","user_profile":{"uid":"bulk1","uid_emb":[1,2,3],"behaviors":{"plays":[[5,{"song":"x"}]]}}}`

	req, err := DecodeAction(ActionUpdateProfile, []byte(nested))
	require.NoError(t, err)
	upd := req.(UpdateProfileRequest)
	assert.Equal(t, "bulk1", upd.UID)
	assert.Equal(t, []float64{1, 2, 3}, upd.Embedding)
	assert.JSONEq(t, `{"song":"x"}`, string(upd.Behaviors["plays"][0].Value))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	var de *DecodeError
	assert.True(t, errors.As(err, &de))

	_, err = Decode([]byte(`{"action":"drop_profile","uid":"x"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Decode([]byte(`{"action":"update_profile","uid":"x","behaviors":{"clicks":[[1]]}}`))
	assert.True(t, errors.As(err, &de))
}

func TestEncodeResponses(t *testing.T) {
	profile := NewProfile("u1", []string{"clicks"})

	tests := []struct {
		name string
		resp Response
		want string
	}{
		{"query", QuerySuccess{Profile: profile},
			`{"status":"success","message":"","profile":{"uid":"u1","embedding":[],"long_term_profile":[],"behaviors":{"clicks":[]}}}`},
		{"update", UpdateSuccess{UID: "u1"},
			`{"status":"success","message":"Behavior data for uid 'u1' updated"}`},
		{"not found", NotFound{UID: "ghost"},
			`{"status":"not_found","message":"User with uid 'ghost' not found"}`},
		{"validation", ValidationError{Message: "Missing or invalid 'uid'"},
			`{"status":"error","message":"Missing or invalid 'uid'","error":"validation"}`},
		{"storage", StorageError{Message: "disk full"},
			`{"status":"error","message":"disk full","error":"storage"}`},
		{"protocol", ProtocolError{Message: "Invalid action"},
			`{"status":"error","message":"Invalid action","error":"protocol"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.resp)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}
