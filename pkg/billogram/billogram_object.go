package billogram

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
)

// Valid delivery methods for billogram send events.
const (
	MethodEmail       = "Email"
	MethodLetter      = "Letter"
	MethodEmailLetter = "Email+Letter"
)

// BillogramObject represents a billogram, the stateful invoice document of
// the service. On top of the basic SimpleObject behavior it exposes the
// workflow commands of the billogram state machine. The client only checks
// trivial argument preconditions; the service is the authority on which
// states permit which command and reports violations as invalid-object-state
// errors.
type BillogramObject struct {
	SimpleObject
}

// PerformEvent performs a generic state transition event on the billogram and
// replaces the local snapshot with the resulting state.
func (b *BillogramObject) PerformEvent(ctx context.Context, event string, data map[string]interface{}) error {
	if b.deleted {
		return ErrObjectDeleted
	}

	objectURL, err := b.URL()
	if err != nil {
		return err
	}

	var body interface{}
	if data != nil {
		body = data
	}

	envelope, err := b.api.Post(ctx, objectURL+"/command/"+event, body)
	if err != nil {
		return fmt.Errorf("performing %s on %s: %w", event, objectURL, err)
	}

	updated, err := envelope.DataObject()
	if err != nil {
		return fmt.Errorf("performing %s on %s: %w", event, objectURL, err)
	}

	b.data = updated

	return nil
}

// CreatePayment registers a manual payment on the billogram.
//
// Only possible in state "Unpaid".
func (b *BillogramObject) CreatePayment(ctx context.Context, amount float64) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}

	return b.PerformEvent(ctx, "payment", map[string]interface{}{"amount": amount})
}

// CreditAmount credits a specific amount of the billogram.
//
// Only possible in states "Unpaid", "Sold" and "Ended".
func (b *BillogramObject) CreditAmount(ctx context.Context, amount float64) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}

	return b.PerformEvent(ctx, "credit", map[string]interface{}{
		"mode":   "amount",
		"amount": amount,
	})
}

// CreditFull credits the full, original amount of the billogram.
func (b *BillogramObject) CreditFull(ctx context.Context) error {
	return b.PerformEvent(ctx, "credit", map[string]interface{}{"mode": "full"})
}

// CreditRemaining credits the remaining unpaid amount of the billogram.
func (b *BillogramObject) CreditRemaining(ctx context.Context) error {
	return b.PerformEvent(ctx, "credit", map[string]interface{}{"mode": "remaining"})
}

// SendMessage sends a message to the recipient of the billogram. Possible
// from all states except on deleted billograms.
func (b *BillogramObject) SendMessage(ctx context.Context, message string) error {
	return b.PerformEvent(ctx, "message", map[string]interface{}{"message": message})
}

// SendToCollector sends the billogram to the collection agency.
//
// Only possible from state "Unpaid".
func (b *BillogramObject) SendToCollector(ctx context.Context) error {
	return b.PerformEvent(ctx, "collect", nil)
}

// SendToFactoring sends the billogram to the factoring agency to be sold.
//
// Only possible from state "Unattested".
func (b *BillogramObject) SendToFactoring(ctx context.Context) error {
	return b.PerformEvent(ctx, "sell", nil)
}

// Writeoff writes off the remaining fees of the billogram.
func (b *BillogramObject) Writeoff(ctx context.Context) error {
	return b.PerformEvent(ctx, "writeoff", nil)
}

// SendReminder sends a reminder to the recipient. method, if given, must be
// MethodEmail or MethodLetter; pass an empty string for the service default.
//
// Only possible from state "Unpaid".
func (b *BillogramObject) SendReminder(ctx context.Context, method string) error {
	if method == "" {
		return b.PerformEvent(ctx, "remind", nil)
	}

	if method != MethodEmail && method != MethodLetter {
		return ErrInvalidRemindMethod
	}

	return b.PerformEvent(ctx, "remind", map[string]interface{}{"method": method})
}

// Send sends the billogram to the recipient by the given delivery method.
//
// Only possible from state "Unattested".
func (b *BillogramObject) Send(ctx context.Context, method string) error {
	if !validSendMethod(method) {
		return ErrInvalidSendMethod
	}

	return b.PerformEvent(ctx, "send", map[string]interface{}{"method": method})
}

// Resend sends the billogram to the recipient again. method, if given, must
// be MethodEmail or MethodLetter; pass an empty string for the service
// default.
//
// Only possible from state "Unpaid".
func (b *BillogramObject) Resend(ctx context.Context, method string) error {
	if method == "" {
		return b.PerformEvent(ctx, "resend", nil)
	}

	if method != MethodEmail && method != MethodLetter {
		return ErrInvalidRemindMethod
	}

	return b.PerformEvent(ctx, "resend", map[string]interface{}{"method": method})
}

// InvoicePDF fetches the PDF content of an invoice on this billogram. The
// service delivers PDF data base64-encoded inside the standard JSON envelope;
// the decoded bytes are returned. letterID and invoiceNo narrow the selection
// when given.
func (b *BillogramObject) InvoicePDF(ctx context.Context, letterID, invoiceNo string) ([]byte, error) {
	objectURL, err := b.URL()
	if err != nil {
		return nil, err
	}

	query := url.Values{}

	if letterID != "" {
		query.Set("letter_id", letterID)
	}

	if invoiceNo != "" {
		query.Set("invoice_no", invoiceNo)
	}

	return b.fetchPDF(ctx, objectURL+".pdf", query)
}

// AttachmentPDF fetches the PDF attachment of the billogram.
func (b *BillogramObject) AttachmentPDF(ctx context.Context) ([]byte, error) {
	objectURL, err := b.URL()
	if err != nil {
		return nil, err
	}

	return b.fetchPDF(ctx, objectURL+"/attachment.pdf", nil)
}

// AttachPDF attaches a PDF document to the billogram.
func (b *BillogramObject) AttachPDF(ctx context.Context, content []byte, filename string) error {
	return b.PerformEvent(ctx, "attach", map[string]interface{}{
		"content":  base64.StdEncoding.EncodeToString(content),
		"filename": filename,
	})
}

func (b *BillogramObject) fetchPDF(ctx context.Context, path string, query url.Values) ([]byte, error) {
	envelope, err := b.api.Fetch(ctx, "GET", path, query, nil, contentTypeJSON)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}

	data, err := envelope.DataObject()
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}

	encoded, _ := data["content"].(string)

	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding PDF content of %s: %w", path, err)
	}

	return content, nil
}

func validSendMethod(method string) bool {
	switch method {
	case MethodEmail, MethodLetter, MethodEmailLetter:
		return true
	default:
		return false
	}
}
