package fund

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bloodflow/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// mockStore 模拟资助存储
type mockStore struct {
	funds []*model.Fund
}

func (m *mockStore) CreateFund(ctx context.Context, fund *model.Fund) error {
	if fund.ID.IsZero() {
		fund.ID = bson.NewObjectID()
	}
	m.funds = append(m.funds, fund)
	return nil
}

func (m *mockStore) ListFunds(ctx context.Context, skip, limit int64) ([]*model.Fund, error) {
	return m.funds, nil
}

func (m *mockStore) CountFunds(ctx context.Context) (int64, error) {
	return int64(len(m.funds)), nil
}

func (m *mockStore) TotalFunding(ctx context.Context) (float64, error) {
	var total float64
	for _, f := range m.funds {
		total += f.FundAmount
	}
	return total, nil
}

// stubPayments 模拟支付方
type stubPayments struct {
	gotAmount   int64
	gotCurrency string
	err         error
}

func (s *stubPayments) CreateIntent(ctx context.Context, amountMinor int64, currency string) (string, error) {
	s.gotAmount = amountMinor
	s.gotCurrency = currency
	if s.err != nil {
		return "", s.err
	}
	return "pi_test_secret", nil
}

func TestCreateFund(t *testing.T) {
	store := &mockStore{}
	h := NewHandler(store, &stubPayments{}, nil)

	body := `{"name":"Alice","email":"alice@x.com","fundAmount":25.5}`
	r := httptest.NewRequest("POST", "/funds", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(store.funds) != 1 || store.funds[0].FundAmount != 25.5 {
		t.Errorf("stored funds = %+v", store.funds)
	}

	t.Run("non-positive amount rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/funds", strings.NewReader(`{"fundAmount":0}`))
		w := httptest.NewRecorder()
		h.Create(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

// stubMetrics 记录资助计数调用
type stubMetrics struct {
	recorded int
}

func (s *stubMetrics) RecordFund() { s.recorded++ }

func TestFundMetricRecorded(t *testing.T) {
	metrics := &stubMetrics{}
	h := NewHandler(&mockStore{}, &stubPayments{}, metrics)

	r := httptest.NewRequest("POST", "/funds", strings.NewReader(`{"name":"Alice","email":"alice@x.com","fundAmount":25.5}`))
	w := httptest.NewRecorder()
	h.Create(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if metrics.recorded != 1 {
		t.Errorf("recorded = %d, want 1", metrics.recorded)
	}

	// 被拒绝的请求不计数
	w = httptest.NewRecorder()
	h.Create(w, httptest.NewRequest("POST", "/funds", strings.NewReader(`{"fundAmount":0}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if metrics.recorded != 1 {
		t.Errorf("recorded = %d, want unchanged 1", metrics.recorded)
	}
}

func TestListAndCountFunds(t *testing.T) {
	store := &mockStore{}
	store.CreateFund(context.Background(), &model.Fund{FundAmount: 10})
	store.CreateFund(context.Background(), &model.Fund{FundAmount: 20.5})
	h := NewHandler(store, &stubPayments{}, nil)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/funds", nil))
	var funds []*model.Fund
	json.NewDecoder(w.Body).Decode(&funds)
	if len(funds) != 2 {
		t.Errorf("List = %d funds, want 2", len(funds))
	}

	w = httptest.NewRecorder()
	h.Count(w, httptest.NewRequest("GET", "/founds-counts", nil))
	var resp map[string]int64
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["count"] != 2 {
		t.Errorf("count = %d, want 2", resp["count"])
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	t.Run("amount converted to minor units", func(t *testing.T) {
		payments := &stubPayments{}
		h := NewHandler(&mockStore{}, payments, nil)

		r := httptest.NewRequest("POST", "/create-payment-intent", strings.NewReader(`{"amount":19.99}`))
		w := httptest.NewRecorder()
		h.CreatePaymentIntent(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if payments.gotAmount != 1998 { // 19.99*100 截断
			t.Errorf("amountMinor = %d, want 1998", payments.gotAmount)
		}
		if payments.gotCurrency != "usd" {
			t.Errorf("currency = %q, want usd", payments.gotCurrency)
		}
		var resp map[string]string
		json.NewDecoder(w.Body).Decode(&resp)
		if resp["clientSecret"] != "pi_test_secret" {
			t.Errorf("clientSecret = %q", resp["clientSecret"])
		}
	})

	t.Run("processor failure -> 500", func(t *testing.T) {
		h := NewHandler(&mockStore{}, &stubPayments{err: errors.New("stripe down")}, nil)
		r := httptest.NewRequest("POST", "/create-payment-intent", strings.NewReader(`{"amount":10}`))
		w := httptest.NewRecorder()
		h.CreatePaymentIntent(w, r)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		h := NewHandler(&mockStore{}, &stubPayments{}, nil)
		r := httptest.NewRequest("POST", "/create-payment-intent", strings.NewReader(`{"amount":-5}`))
		w := httptest.NewRecorder()
		h.CreatePaymentIntent(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
