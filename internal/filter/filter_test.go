package filter

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cliErrors "gcloud-logs/internal/errors"
)

var (
	testFrom = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	testTo   = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
)

// TestQueryStringInstances verifies the filter names all and only the given
// instances.
func TestQueryStringInstances(t *testing.T) {
	tests := []struct {
		name      string
		instances []string
	}{
		{name: "single instance", instances: []string{"web-1"}},
		{name: "multiple instances", instances: []string{"web-1", "web-2", "worker-3"}},
		{name: "no instances", instances: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Query{Instances: tt.instances, From: testFrom}
			expr := q.String()

			assert.Contains(t, expr, `resource.type="gce_instance"`)

			for _, name := range tt.instances {
				assert.Contains(t, expr, fmt.Sprintf(`resource.labels.instance_id="%s"`, name))
			}

			// all and only: the instance clause holds exactly len(instances) names
			assert.Equal(t, len(tt.instances), strings.Count(expr, "resource.labels.instance_id="))

			if len(tt.instances) == 0 {
				assert.NotContains(t, expr, "OR")
			}
		})
	}
}

// TestQueryStringWindow verifies the timestamp clauses.
func TestQueryStringWindow(t *testing.T) {
	t.Run("bounded window", func(t *testing.T) {
		q := Query{Instances: []string{"web-1"}, From: testFrom, To: testTo}
		expr := q.String()

		assert.Contains(t, expr, `timestamp >= "2024-01-15T09:00:00Z"`)
		assert.Contains(t, expr, `timestamp <= "2024-01-15T10:00:00Z"`)
	})

	t.Run("open-ended window", func(t *testing.T) {
		q := Query{Instances: []string{"web-1"}, From: testFrom}
		expr := q.String()

		assert.Contains(t, expr, `timestamp >= "2024-01-15T09:00:00Z"`)
		assert.NotContains(t, expr, "timestamp <=")
	})
}

// TestQueryStringClauseJoin verifies the clause separator.
func TestQueryStringClauseJoin(t *testing.T) {
	q := Query{Instances: []string{"a-1", "b-2"}, From: testFrom, To: testTo}
	expr := q.String()

	// three AND-joined top-level clauses plus the window bound
	assert.Equal(t, 3, strings.Count(expr, " AND "))
	assert.Contains(t, expr, `(resource.labels.instance_id="a-1" OR resource.labels.instance_id="b-2")`)
}

// TestValidateInstanceName checks the GCE naming grammar.
func TestValidateInstanceName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "simple", value: "web-1", wantErr: false},
		{name: "single letter", value: "a", wantErr: false},
		{name: "digits and hyphens", value: "k8s-node-00", wantErr: false},
		{name: "max length", value: "a" + strings.Repeat("b", 62), wantErr: false},
		{name: "empty", value: "", wantErr: true},
		{name: "uppercase", value: "Web-1", wantErr: true},
		{name: "leading digit", value: "1web", wantErr: true},
		{name: "trailing hyphen", value: "web-", wantErr: true},
		{name: "underscore", value: "web_1", wantErr: true},
		{name: "embedded quote", value: `web"1`, wantErr: true},
		{name: "too long", value: "a" + strings.Repeat("b", 63), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstanceName(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, cliErrors.ErrInvalidInstanceName)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestQueryValidate covers window ordering and name validation together.
func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr error
	}{
		{
			name:  "valid bounded",
			query: Query{Instances: []string{"web-1"}, From: testFrom, To: testTo},
		},
		{
			name:  "valid open-ended",
			query: Query{Instances: []string{"web-1"}, From: testFrom},
		},
		{
			name:    "missing from",
			query:   Query{Instances: []string{"web-1"}},
			wantErr: cliErrors.ErrConfigValidation,
		},
		{
			name:    "inverted window",
			query:   Query{Instances: []string{"web-1"}, From: testTo, To: testFrom},
			wantErr: cliErrors.ErrInvalidWindow,
		},
		{
			name:    "bad instance name",
			query:   Query{Instances: []string{"web-1", "Not-Valid"}, From: testFrom},
			wantErr: cliErrors.ErrInvalidInstanceName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestEscape verifies quote/backslash escaping for filter literals.
func TestEscape(t *testing.T) {
	assert.Equal(t, `plain`, escape(`plain`))
	assert.Equal(t, `a\"b`, escape(`a"b`))
	assert.Equal(t, `a\\b`, escape(`a\b`))
	assert.Equal(t, `a\\\"b`, escape(`a\"b`))
}
