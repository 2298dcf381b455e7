package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rgarciadev/atelier-backend/api/middleware"
	checkoutsvc "github.com/rgarciadev/atelier-backend/internal/checkout"
	"github.com/rgarciadev/atelier-backend/internal/orders"
	"github.com/rgarciadev/atelier-backend/pkg/enums"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

type stubCheckout struct {
	summary *orders.Summary
	err     error
}

func (s stubCheckout) CheckoutSavedCard(ctx context.Context, owner types.Owner, req checkoutsvc.SavedCardRequest) (*orders.Summary, error) {
	return s.summary, s.err
}

func (s stubCheckout) CheckoutNewCard(ctx context.Context, owner types.Owner, req checkoutsvc.NewCardRequest) (*orders.Summary, error) {
	return s.summary, s.err
}

func (s stubCheckout) CheckoutGuest(ctx context.Context, guestID uuid.UUID, req checkoutsvc.GuestRequest) (*orders.Summary, error) {
	return s.summary, s.err
}

func userRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithOwner(req.Context(), types.UserOwner(uuid.New())))
}

func TestCheckoutSavedCardSuccess(t *testing.T) {
	summary := &orders.Summary{
		OrderNumber:   "ORD-TEST1234",
		Status:        enums.OrderStatusOrdered,
		PaymentMethod: enums.PaymentMethodSavedCard,
		TotalAmount:   decimal.RequireFromString("117.95"),
	}
	handler := CheckoutSavedCard(stubCheckout{summary: summary}, nil)

	body, _ := json.Marshal(map[string]any{
		"shipping_address_id": uuid.New().String(),
		"cvc":                 "500",
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, userRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data orders.Summary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != summary.OrderNumber {
		t.Fatalf("unexpected order number: %s", envelope.Data.OrderNumber)
	}
}

func TestCheckoutSavedCardMissingCVC(t *testing.T) {
	handler := CheckoutSavedCard(stubCheckout{}, nil)

	body, _ := json.Marshal(map[string]any{
		"shipping_address_id": uuid.New().String(),
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, userRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutSavedCardMissingOwner(t *testing.T) {
	handler := CheckoutSavedCard(stubCheckout{}, nil)

	body, _ := json.Marshal(map[string]any{
		"shipping_address_id": uuid.New().String(),
		"cvc":                 "500",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutSavedCardDeclineSurfaces402(t *testing.T) {
	handler := CheckoutSavedCard(stubCheckout{err: pkgerrors.New(pkgerrors.CodePaymentDeclined, "card declined")}, nil)

	body, _ := json.Marshal(map[string]any{
		"shipping_address_id": uuid.New().String(),
		"cvc":                 "999",
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, userRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", resp.Code)
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("999")) {
		t.Fatal("response must not echo the submitted cvc")
	}
}

func TestCheckoutNewCardRejectsUnknownFields(t *testing.T) {
	handler := CheckoutNewCard(stubCheckout{}, nil)

	body := []byte(`{"shipping_address_id":"` + uuid.New().String() + `","bogus":true}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, userRequest(http.MethodPost, "/api/v1/checkout/new-card", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutGuestRequiresGuestIdentity(t *testing.T) {
	handler := CheckoutGuest(stubCheckout{}, nil)

	body, _ := json.Marshal(map[string]any{
		"address": map[string]any{
			"full_name":   "Ada Guest",
			"line1":       "1 Main St",
			"city":        "Austin",
			"state":       "TX",
			"postal_code": "78701",
		},
		"card": map[string]any{
			"number":    "4242424242424242",
			"expiry":    "12/30",
			"cvc":       "500",
			"card_type": "DEBIT",
		},
	})
	resp := httptest.NewRecorder()
	// a registered user on the guest route is rejected
	handler.ServeHTTP(resp, userRequest(http.MethodPost, "/api/v1/guest/checkout", body))

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCheckoutGuestSuccess(t *testing.T) {
	summary := &orders.Summary{
		OrderNumber:   "ORD-GUEST999",
		Status:        enums.OrderStatusOrdered,
		PaymentMethod: enums.PaymentMethodGuestCard,
	}
	handler := CheckoutGuest(stubCheckout{summary: summary}, nil)

	body, _ := json.Marshal(map[string]any{
		"address": map[string]any{
			"full_name":   "Ada Guest",
			"line1":       "1 Main St",
			"city":        "Austin",
			"state":       "TX",
			"postal_code": "78701",
		},
		"card": map[string]any{
			"number":    "4242424242424242",
			"expiry":    "12/30",
			"cvc":       "500",
			"card_type": "DEBIT",
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/guest/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithOwner(req.Context(), types.GuestOwner(uuid.New())))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("ORD-GUEST999")) {
		t.Fatal("expected order number in response")
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("4242424242424242")) {
		t.Fatal("response must not echo the card number")
	}
}
