// Package models defines the core data structures used across the tool.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/logging"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Entry is the canonical log entry flowing from the API to the output layer.
// It carries only the fields the tool displays; the rest of the API response
// is fetched, printed, discarded.
type Entry struct {
	// Timestamp of the log entry.
	Timestamp time.Time `json:"timestamp"`

	// Severity is the API severity name (e.g. INFO, ERROR).
	Severity string `json:"severity,omitempty"`

	// LogName is the fully-qualified log name.
	LogName string `json:"logName,omitempty"`

	// InsertID is the API's unique identifier for the entry.
	InsertID string `json:"insertId,omitempty"`

	// Resource describes the monitored resource that emitted the entry.
	Resource Resource `json:"resource"`

	// Labels are the user labels attached to the entry.
	Labels map[string]string `json:"labels,omitempty"`

	// TextPayload is set for plain-text entries.
	TextPayload string `json:"textPayload,omitempty"`

	// JSONPayload is set for structured entries.
	JSONPayload map[string]any `json:"jsonPayload,omitempty"`
}

// Resource is the monitored-resource descriptor of an entry.
type Resource struct {
	Type   string            `json:"type,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// InstanceID returns the GCE instance identifier of the emitting resource,
// or "" for entries from other resource types.
func (e *Entry) InstanceID() string {
	return e.Resource.Labels["instance_id"]
}

// PayloadString renders the payload for single-line display.
func (e *Entry) PayloadString() string {
	if e.JSONPayload != nil {
		data, err := json.Marshal(e.JSONPayload)
		if err != nil {
			return fmt.Sprintf("%v", e.JSONPayload)
		}
		return string(data)
	}
	return e.TextPayload
}

// FromAPI converts an SDK entry to the canonical form.
func FromAPI(src *logging.Entry) *Entry {
	if src == nil {
		return nil
	}

	e := &Entry{
		Timestamp: src.Timestamp,
		Severity:  src.Severity.String(),
		LogName:   src.LogName,
		InsertID:  src.InsertID,
		Labels:    src.Labels,
	}

	if src.Resource != nil {
		e.Resource = Resource{
			Type:   src.Resource.Type,
			Labels: src.Resource.Labels,
		}
	}

	switch payload := src.Payload.(type) {
	case nil:
	case string:
		e.TextPayload = payload
	case *structpb.Struct:
		e.JSONPayload = payload.AsMap()
	case proto.Message:
		// proto payloads print as their JSON form
		if data, err := protojson.Marshal(payload); err == nil {
			var m map[string]any
			if json.Unmarshal(data, &m) == nil {
				e.JSONPayload = m
				break
			}
		}
		e.TextPayload = fmt.Sprintf("%v", payload)
	default:
		e.TextPayload = fmt.Sprintf("%v", payload)
	}

	return e
}

// ToJSON serializes the entry to its API JSON representation. This is the
// line format of --api output and of replayable capture files.
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON deserializes an entry from its API JSON representation.
func FromJSON(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
