package models

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mrpb "google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/structpb"
)

var testTime = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func gceResource(instanceID string) *mrpb.MonitoredResource {
	return &mrpb.MonitoredResource{
		Type: "gce_instance",
		Labels: map[string]string{
			"instance_id": instanceID,
			"zone":        "us-central1-a",
			"project_id":  "my-project",
		},
	}
}

// TestFromAPITextPayload converts a plain-text SDK entry.
func TestFromAPITextPayload(t *testing.T) {
	src := &logging.Entry{
		Timestamp: testTime,
		Severity:  logging.Error,
		Payload:   "disk is on fire",
		InsertID:  "abc123",
		LogName:   "projects/my-project/logs/syslog",
		Labels:    map[string]string{"env": "prod"},
		Resource:  gceResource("1234567890"),
	}

	e := FromAPI(src)
	require.NotNil(t, e)

	assert.Equal(t, testTime, e.Timestamp)
	assert.Equal(t, "ERROR", e.Severity)
	assert.Equal(t, "abc123", e.InsertID)
	assert.Equal(t, "projects/my-project/logs/syslog", e.LogName)
	assert.Equal(t, "disk is on fire", e.TextPayload)
	assert.Nil(t, e.JSONPayload)
	assert.Equal(t, "1234567890", e.InstanceID())
	assert.Equal(t, "gce_instance", e.Resource.Type)
	assert.Equal(t, "prod", e.Labels["env"])
}

// TestFromAPIStructPayload converts a structured SDK entry.
func TestFromAPIStructPayload(t *testing.T) {
	payload, err := structpb.NewStruct(map[string]any{
		"message": "request handled",
		"status":  float64(200),
	})
	require.NoError(t, err)

	src := &logging.Entry{
		Timestamp: testTime,
		Severity:  logging.Info,
		Payload:   payload,
		Resource:  gceResource("42"),
	}

	e := FromAPI(src)
	require.NotNil(t, e)

	assert.Equal(t, "INFO", e.Severity)
	assert.Empty(t, e.TextPayload)
	require.NotNil(t, e.JSONPayload)
	assert.Equal(t, "request handled", e.JSONPayload["message"])
	assert.Equal(t, float64(200), e.JSONPayload["status"])
}

// TestFromAPINil handles nil input and nil payload.
func TestFromAPINil(t *testing.T) {
	assert.Nil(t, FromAPI(nil))

	e := FromAPI(&logging.Entry{Timestamp: testTime})
	require.NotNil(t, e)
	assert.Empty(t, e.TextPayload)
	assert.Nil(t, e.JSONPayload)
	assert.Empty(t, e.InstanceID())
}

// TestPayloadString renders both payload shapes for line output.
func TestPayloadString(t *testing.T) {
	text := &Entry{TextPayload: "plain line"}
	assert.Equal(t, "plain line", text.PayloadString())

	structured := &Entry{JSONPayload: map[string]any{"a": float64(1)}}
	assert.JSONEq(t, `{"a":1}`, structured.PayloadString())

	empty := &Entry{}
	assert.Equal(t, "", empty.PayloadString())
}

// TestJSONRoundTrip verifies the API representation survives ToJSON/FromJSON,
// which is what the replay path depends on.
func TestJSONRoundTrip(t *testing.T) {
	orig := &Entry{
		Timestamp: testTime,
		Severity:  "WARNING",
		LogName:   "projects/p/logs/syslog",
		InsertID:  "ins-1",
		Resource: Resource{
			Type:   "gce_instance",
			Labels: map[string]string{"instance_id": "77"},
		},
		Labels:      map[string]string{"env": "staging"},
		TextPayload: "watch out",
	}

	data, err := orig.ToJSON()
	require.NoError(t, err)

	// the wire form uses the API's field names
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "textPayload")
	assert.Contains(t, raw, "insertId")
	assert.Contains(t, raw, "logName")

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}

// TestFromJSONInvalid rejects non-JSON input.
func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte("not json"))
	assert.Error(t, err)
}
