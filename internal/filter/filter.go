// Package filter constructs Cloud Logging filter expressions for GCE
// instance log queries.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	cliErrors "gcloud-logs/internal/errors"
)

// instanceNamePattern is the GCE instance naming grammar: lowercase letter
// first, then up to 62 lowercase letters, digits, or hyphens, no trailing
// hyphen.
var instanceNamePattern = regexp.MustCompile(`^[a-z]([-a-z0-9]{0,61}[a-z0-9])?$`)

// Query describes one log query: which instances, over which window.
// A zero To leaves the window open-ended.
type Query struct {
	Instances []string
	From      time.Time
	To        time.Time
}

// Validate checks instance names and window ordering before any API call.
func (q *Query) Validate() error {
	for _, name := range q.Instances {
		if err := ValidateInstanceName(name); err != nil {
			return err
		}
	}
	if q.From.IsZero() {
		return cliErrors.NewConfigValidationError("From", q.From, "start of window is required")
	}
	if !q.To.IsZero() && q.To.Before(q.From) {
		return cliErrors.NewInvalidWindowError(
			q.From.Format(time.RFC3339),
			q.To.Format(time.RFC3339),
		)
	}
	return nil
}

// String builds the filter expression. The clause set matches what the
// Logging API expects for GCE instance logs:
//
//	resource.type="gce_instance" AND
//	(resource.labels.instance_id="a" OR resource.labels.instance_id="b") AND
//	timestamp >= "..." AND timestamp <= "..."
//
// With no instances the instance clause is omitted and all GCE instances in
// the project match.
func (q *Query) String() string {
	clauses := []string{`resource.type="gce_instance"`}

	if len(q.Instances) > 0 {
		parts := make([]string, 0, len(q.Instances))
		for _, name := range q.Instances {
			parts = append(parts, fmt.Sprintf(`resource.labels.instance_id="%s"`, escape(name)))
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}

	clauses = append(clauses, fmt.Sprintf(`timestamp >= "%s"`, q.From.Format(time.RFC3339Nano)))
	if !q.To.IsZero() {
		clauses = append(clauses, fmt.Sprintf(`timestamp <= "%s"`, q.To.Format(time.RFC3339Nano)))
	}

	return strings.Join(clauses, " AND ")
}

// ValidateInstanceName rejects strings that cannot name a GCE instance.
func ValidateInstanceName(name string) error {
	if !instanceNamePattern.MatchString(name) {
		return cliErrors.NewInvalidInstanceNameError(name)
	}
	return nil
}

// escape backslash-escapes quotes and backslashes for filter string literals.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
