package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// OK wraps data in the {status:"OK", data} envelope.
func OK(data any) string {
	return mustJSON(map[string]any{"status": "OK", "data": data})
}

// OKMessage is OK with a message.
func OKMessage(data any, message string) string {
	return mustJSON(map[string]any{"status": "OK", "data": data, "message": message})
}

// OKPage wraps items with pagination metadata.
func OKPage(items any, page, limit, total int) string {
	return mustJSON(map[string]any{
		"status": "OK",
		"data":   items,
		"pagination": map[string]int{
			"page": page, "limit": limit, "total": total,
		},
	})
}

// Fail is an application-level failure on HTTP 200.
func Fail(message string) string {
	return mustJSON(map[string]any{"status": "ERROR", "message": message})
}

// Message is a bare {message} body, as sent with non-2xx statuses.
func Message(message string) string {
	return mustJSON(map[string]any{"message": message})
}

// DecodeBody unmarshals a recorded call's JSON body into a generic map.
func DecodeBody(t *testing.T, c Call) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(c.Body, &out), "body: %s", string(c.Body))
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
