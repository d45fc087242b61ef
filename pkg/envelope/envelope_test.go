package envelope_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/shopdesk/pkg/envelope"
)

func TestDecodeStatusOK(t *testing.T) {
	res, err := envelope.Decode(http.StatusOK, []byte(`{
		"status": "OK",
		"data": [{"_id": "c1"}],
		"pagination": {"page": 2, "limit": 10, "total": 31},
		"message": "fetched"
	}`))
	require.NoError(t, err)

	assert.JSONEq(t, `[{"_id":"c1"}]`, string(res.Data))
	assert.Equal(t, &envelope.Pagination{Page: 2, Limit: 10, Total: 31}, res.Pagination)
	assert.Equal(t, "fetched", res.Message)
}

func TestDecodeSuccessFlag(t *testing.T) {
	res, err := envelope.Decode(http.StatusCreated, []byte(`{"success": true, "data": {"_id": "r1"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"r1"}`, string(res.Data))

	_, err = envelope.Decode(http.StatusOK, []byte(`{"success": false, "message": "Review already exists"}`))
	var e *envelope.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, envelope.KindApplication, e.Kind)
	assert.Equal(t, "Review already exists", envelope.Message(err))
}

func TestDecodeApplicationFailureOn200(t *testing.T) {
	_, err := envelope.Decode(http.StatusOK, []byte(`{"status": "ERR", "message": "Category name taken"}`))
	var e *envelope.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, envelope.KindApplication, e.Kind)
	assert.Equal(t, "Category name taken", e.Message)
}

func TestDecodeHTTPFailure(t *testing.T) {
	_, err := envelope.Decode(http.StatusNotFound, []byte(`{"message": "Order not found"}`))
	assert.True(t, envelope.IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "Order not found", envelope.Message(err))

	_, err = envelope.Decode(http.StatusBadGateway, []byte(`<html>bad gateway</html>`))
	assert.Contains(t, envelope.Message(err), "502")
}

func TestDecodeBareBodies(t *testing.T) {
	res, err := envelope.Decode(http.StatusOK, []byte(`[{"_id": "p1"}]`))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"_id":"p1"}]`, string(res.Data))

	res, err = envelope.Decode(http.StatusOK, []byte(`{"_id": "a1", "storeName": "Shop"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"a1","storeName":"Shop"}`, string(res.Data))

	res, err = envelope.Decode(http.StatusNoContent, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestDecodeNumericStatus(t *testing.T) {
	_, err := envelope.Decode(http.StatusOK, []byte(`{"status": 200, "data": {"ok": 1}}`))
	require.NoError(t, err)

	_, err = envelope.Decode(http.StatusOK, []byte(`{"status": 422, "message": "Validation failed"}`))
	assert.Equal(t, "Validation failed", envelope.Message(err))
}

func TestUnwrapNestedItems(t *testing.T) {
	res, err := envelope.Decode(http.StatusOK, []byte(`{
		"status": "OK",
		"data": {"items": [{"_id": "n1"}], "pagination": {"page": 1, "limit": 5, "total": 1}}
	}`))
	require.NoError(t, err)

	res.Unwrap()
	assert.JSONEq(t, `[{"_id":"n1"}]`, string(res.Data))
	assert.Equal(t, 5, res.Pagination.Limit)
}

func TestTopLevelTotals(t *testing.T) {
	res, err := envelope.Decode(http.StatusOK, []byte(`{"success": true, "data": [], "total": 40, "page": 3, "limit": 10}`))
	require.NoError(t, err)
	assert.Equal(t, &envelope.Pagination{Page: 3, Limit: 10, Total: 40}, res.Pagination)
}

func TestMessageFallsBackToErrorText(t *testing.T) {
	err := envelope.Transport(errors.New("dial tcp: connection refused"))
	assert.Equal(t, "dial tcp: connection refused", envelope.Message(err))
	assert.Equal(t, "plain", envelope.Message(errors.New("plain")))
}

func TestEntityStatusFieldsAreNotEnvelopes(t *testing.T) {
	res, err := envelope.Decode(http.StatusOK, []byte(`{"_id": "c1", "name": "Laptops", "status": false}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"c1","name":"Laptops","status":false}`, string(res.Data))

	res, err = envelope.Decode(http.StatusOK, []byte(`{"_id": "n1", "title": "Hello", "status": "draft"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"n1","title":"Hello","status":"draft"}`, string(res.Data))
}
