package billogram

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillogramObject_PerformEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billogram/abc123/command/send", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Email", body["method"])

		writeEnvelope(w, map[string]interface{}{"id": "abc123", "state": "Unpaid"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	billogram := client.Billogram().Reference("abc123")
	require.NoError(t, billogram.Send(context.Background(), "Email"))

	// The snapshot is the post-event state reported by the server.
	state, err := billogram.Attr("state")
	require.NoError(t, err)
	assert.Equal(t, "Unpaid", state)
}

func TestBillogramObject_EventsWithoutPayload(t *testing.T) {
	events := map[string]func(*BillogramObject, context.Context) error{
		"collect":  (*BillogramObject).SendToCollector,
		"sell":     (*BillogramObject).SendToFactoring,
		"writeoff": (*BillogramObject).Writeoff,
	}

	for event, call := range events {
		t.Run(event, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/billogram/x/command/"+event, r.URL.Path)
				assert.Empty(t, r.Header.Get("Content-Type"))

				writeEnvelope(w, map[string]interface{}{"id": "x"})
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			require.NoError(t, call(client.Billogram().Reference("x"), context.Background()))
		})
	}
}

func TestBillogramObject_ClientSidePreconditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("precondition failures must not reach the network")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()
	billogram := client.Billogram().Reference("x")

	assert.ErrorIs(t, billogram.CreatePayment(ctx, 0), ErrAmountNotPositive)
	assert.ErrorIs(t, billogram.CreatePayment(ctx, -10), ErrAmountNotPositive)
	assert.ErrorIs(t, billogram.CreditAmount(ctx, 0), ErrAmountNotPositive)
	assert.ErrorIs(t, billogram.Send(ctx, ""), ErrInvalidSendMethod)
	assert.ErrorIs(t, billogram.Send(ctx, "Fax"), ErrInvalidSendMethod)
	assert.ErrorIs(t, billogram.SendReminder(ctx, "Email+Letter"), ErrInvalidRemindMethod)
	assert.ErrorIs(t, billogram.Resend(ctx, "Pigeon"), ErrInvalidRemindMethod)
}

func TestBillogramObject_CreditModes(t *testing.T) {
	var bodies []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billogram/x/command/credit", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		writeEnvelope(w, map[string]interface{}{"id": "x"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()
	billogram := client.Billogram().Reference("x")

	require.NoError(t, billogram.CreditAmount(ctx, 150))
	require.NoError(t, billogram.CreditFull(ctx))
	require.NoError(t, billogram.CreditRemaining(ctx))

	require.Len(t, bodies, 3)
	assert.Equal(t, map[string]interface{}{"mode": "amount", "amount": float64(150)}, bodies[0])
	assert.Equal(t, map[string]interface{}{"mode": "full"}, bodies[1])
	assert.Equal(t, map[string]interface{}{"mode": "remaining"}, bodies[2])
}

func TestBillogramObject_SendReminderDefaultMethod(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billogram/x/command/remind", r.URL.Path)
		// No method given, so no payload at all.
		assert.Empty(t, r.Header.Get("Content-Type"))

		writeEnvelope(w, map[string]interface{}{"id": "x"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	require.NoError(t, client.Billogram().Reference("x").SendReminder(context.Background(), ""))
}

func TestBillogramObject_InvoicePDF(t *testing.T) {
	pdfBytes := []byte{0, 1, 2, 3}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billogram/abc123.pdf", r.URL.Path)
		assert.Equal(t, "letter-1", r.URL.Query().Get("letter_id"))
		assert.Equal(t, "77", r.URL.Query().Get("invoice_no"))

		// PDF content travels base64-encoded inside the JSON envelope.
		writeEnvelope(w, map[string]interface{}{
			"content": base64.StdEncoding.EncodeToString(pdfBytes),
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	content, err := client.Billogram().Reference("abc123").InvoicePDF(context.Background(), "letter-1", "77")
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, content)
}

func TestBillogramObject_AttachmentPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billogram/abc123/attachment.pdf", r.URL.Path)

		writeEnvelope(w, map[string]interface{}{
			"content": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	content, err := client.Billogram().Reference("abc123").AttachmentPDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), content)
}

func TestBillogramObject_AttachPDF(t *testing.T) {
	document := []byte("%PDF-1.4 fake document")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billogram/abc123/command/attach", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, base64.StdEncoding.EncodeToString(document), body["content"])
		assert.Equal(t, "contract.pdf", body["filename"])

		writeEnvelope(w, map[string]interface{}{"id": "abc123"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.Billogram().Reference("abc123").AttachPDF(context.Background(), document, "contract.pdf")
	require.NoError(t, err)
}

func TestBillogramObject_InvalidStateSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": "INVALID_OBJECT_STATE", "data": {"message": "billogram is not in a sendable state"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.Billogram().Reference("x").Send(context.Background(), "Letter")
	assert.True(t, IsInvalidObjectState(err))
	assert.True(t, IsRequestData(err))
}
