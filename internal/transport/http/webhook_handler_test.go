package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"prepquiz-service/internal/app"
	"prepquiz-service/internal/domain"
	"prepquiz-service/internal/infra/memory"
)

func TestWebhookMissingTransactionIs400(t *testing.T) {
	handler := NewWebhookHandler(newWebhookService(&stubVerifier{}))

	resp := postJSON(t, handler.Notify, `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["error"] == "" {
		t.Fatalf("expected error message, got %s", resp.Body.String())
	}
}

func TestWebhookNonAcceptedStatusIs200NoOp(t *testing.T) {
	verifier := &stubVerifier{txn: domain.Transaction{Status: "REFUSED", UserID: "u1"}}
	handler := NewWebhookHandler(newWebhookService(verifier))

	resp := postJSON(t, handler.Notify, `{"cpm_trans_id": "txn-1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["message"] != "Payment not successful" {
		t.Fatalf("expected 'Payment not successful', got %q", body["message"])
	}
}

func TestWebhookEmptyVerificationResponseIs400(t *testing.T) {
	// status check returns a transaction with no status at all
	verifier := &stubVerifier{txn: domain.Transaction{}}
	handler := NewWebhookHandler(newWebhookService(verifier))

	resp := postJSON(t, handler.Notify, `{"transactionId": "txn-1"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "verification response") {
		t.Fatalf("expected verification error body, got %s", resp.Body.String())
	}
}

func TestWebhookVerificationFailureIs500(t *testing.T) {
	verifier := &stubVerifier{err: context.DeadlineExceeded}
	handler := NewWebhookHandler(newWebhookService(verifier))

	resp := postJSON(t, handler.Notify, `{"transactionId": "txn-1"}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookAcceptedPaymentIs200(t *testing.T) {
	verifier := &stubVerifier{txn: domain.Transaction{Status: domain.TransactionAccepted, UserID: "u1", PlanDays: 30}}
	handler := NewWebhookHandler(newWebhookService(verifier))

	resp := postJSON(t, handler.Notify, `{"transactionId": "txn-1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Subscription upgraded") {
		t.Fatalf("expected upgrade message, got %s", resp.Body.String())
	}
}

func postJSON(t *testing.T, handler func(http.ResponseWriter, *http.Request), body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func newWebhookService(verifier app.PaymentVerifier) *app.SubscriptionService {
	users := memory.NewUserRepository(map[string]domain.User{
		"u1": {ID: "u1", SubscriptionType: domain.TierGratuit},
	})
	return app.NewSubscriptionService(users, verifier, memory.NewTransactionDedup(time.Hour))
}

type stubVerifier struct {
	txn domain.Transaction
	err error
}

func (v *stubVerifier) CheckTransaction(_ context.Context, transactionID string) (domain.Transaction, error) {
	if v.err != nil {
		return domain.Transaction{}, v.err
	}
	txn := v.txn
	txn.ID = transactionID
	return txn, nil
}
