package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	var syntaxErr error
	{
		var v any
		syntaxErr = json.Unmarshal([]byte("{"), &v)
	}

	tests := []struct {
		name      string
		err       error
		retryable bool
		kind      string
	}{
		{"nil", nil, false, ""},
		{"json", fmt.Errorf("decode payload: %w", syntaxErr), false, "json_decode_error"},
		{"no rows", fmt.Errorf("load: %w", pgx.ErrNoRows), false, "record_not_found"},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"url", &url.Error{Op: "Post", URL: "http://menu", Err: errors.New("connection refused")}, true, "network_error"},
		{"breaker", errors.New("circuit breaker is open"), true, "circuit_open"},
		{"ai 5xx", errors.New("ai service 5xx: 503"), true, "ai_service_error"},
		{"ai 4xx", errors.New("ai service error: 400"), false, "ai_service_rejected"},
		{"other", errors.New("something odd"), false, "unknown_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, kind := IsRetryableError(tt.err)
			assert.Equal(t, tt.retryable, retryable)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
