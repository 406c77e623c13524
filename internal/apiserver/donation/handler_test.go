package donation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bloodflow/internal/apiserver/auth"
	"bloodflow/internal/shared/model"
	"bloodflow/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// mockStore 模拟捐血请求存储
type mockStore struct {
	requests map[bson.ObjectID]*model.DonationRequest
}

func newMockStore() *mockStore {
	return &mockStore{requests: make(map[bson.ObjectID]*model.DonationRequest)}
}

func (m *mockStore) CreateDonationRequest(ctx context.Context, req *model.DonationRequest) error {
	if req.ID.IsZero() {
		req.ID = bson.NewObjectID()
	}
	m.requests[req.ID] = req
	return nil
}

func (m *mockStore) GetDonationRequest(ctx context.Context, id bson.ObjectID) (*model.DonationRequest, error) {
	return m.requests[id], nil
}

func (m *mockStore) ListDonationRequests(ctx context.Context, status string, skip, limit int64) ([]*model.DonationRequest, error) {
	results := []*model.DonationRequest{}
	for _, r := range m.requests {
		if status != "" && string(r.DonationStatus) != status {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func (m *mockStore) ListDonationRequestsByRequester(ctx context.Context, email, status string, skip, limit int64) ([]*model.DonationRequest, error) {
	results := []*model.DonationRequest{}
	for _, r := range m.requests {
		if r.RequesterEmail != email {
			continue
		}
		if status != "" && string(r.DonationStatus) != status {
			continue
		}
		results = append(results, r)
		if limit > 0 && int64(len(results)) == limit {
			break
		}
	}
	return results, nil
}

func (m *mockStore) CountDonationRequests(ctx context.Context, status string) (int64, error) {
	rs, _ := m.ListDonationRequests(ctx, status, 0, 0)
	return int64(len(rs)), nil
}

func (m *mockStore) CountDonationRequestsByRequester(ctx context.Context, email, status string) (int64, error) {
	rs, _ := m.ListDonationRequestsByRequester(ctx, email, status, 0, 0)
	return int64(len(rs)), nil
}

func (m *mockStore) UpdateDonationStatus(ctx context.Context, id bson.ObjectID, status model.DonationStatus, donorEmail, donorName *string) error {
	r, ok := m.requests[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.DonationStatus = status
	if donorEmail != nil {
		r.DonorEmail = donorEmail
	}
	if donorName != nil {
		r.DonorName = donorName
	}
	return nil
}

func (m *mockStore) UpdateDonationFields(ctx context.Context, id bson.ObjectID, fields map[string]any) error {
	r, ok := m.requests[id]
	if !ok {
		return storage.ErrNotFound
	}
	if v, ok := fields["hospitalName"].(string); ok {
		r.HospitalName = v
	}
	if v, ok := fields["bloodGroup"].(string); ok {
		r.BloodGroup = v
	}
	return nil
}

func (m *mockStore) DeleteDonationRequest(ctx context.Context, id bson.ObjectID) error {
	if _, ok := m.requests[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.requests, id)
	return nil
}

// stubMetrics 记录状态计数调用
type stubMetrics struct {
	statuses []string
}

func (s *stubMetrics) RecordDonationStatus(status string) {
	s.statuses = append(s.statuses, status)
}

func withIdentity(r *http.Request, email string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{Email: email}))
}

func TestCreate(t *testing.T) {
	store := newMockStore()
	h := NewHandler(store, nil)

	t.Run("forces pending and requester identity", func(t *testing.T) {
		body := `{"recipientName":"Rahim","bloodGroup":"B+","donationStatus":"done","requesterName":"Alice"}`
		r := withIdentity(httptest.NewRequest("POST", "/create-donate-request", strings.NewReader(body)), "alice@x.com")
		w := httptest.NewRecorder()
		h.Create(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if len(store.requests) != 1 {
			t.Fatalf("stored %d requests, want 1", len(store.requests))
		}
		for _, req := range store.requests {
			if req.DonationStatus != model.DonationStatusPending {
				t.Errorf("status = %q, want pending regardless of body", req.DonationStatus)
			}
			if req.RequesterEmail != "alice@x.com" {
				t.Errorf("requesterEmail = %q, want token identity", req.RequesterEmail)
			}
		}
	})

	t.Run("missing required fields -> 400", func(t *testing.T) {
		r := withIdentity(httptest.NewRequest("POST", "/create-donate-request", strings.NewReader(`{"bloodGroup":"B+"}`)), "alice@x.com")
		w := httptest.NewRecorder()
		h.Create(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestListRecent_DefaultLimit(t *testing.T) {
	store := newMockStore()
	for i := 0; i < 5; i++ {
		store.CreateDonationRequest(context.Background(), &model.DonationRequest{
			RequesterEmail: "alice@x.com",
			DonationStatus: model.DonationStatusPending,
		})
	}
	h := NewHandler(store, nil)

	r := httptest.NewRequest("GET", "/donation-request?email=alice%40x.com", nil)
	w := httptest.NewRecorder()
	h.ListRecent(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var results []*model.DonationRequest
	json.NewDecoder(w.Body).Decode(&results)
	if len(results) != 3 {
		t.Errorf("results = %d, want default limit 3", len(results))
	}

	t.Run("missing email -> 400", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/donation-request", nil)
		w := httptest.NewRecorder()
		h.ListRecent(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	newHandlerWith := func(status model.DonationStatus) (*Handler, *model.DonationRequest, *http.ServeMux) {
		store := newMockStore()
		req := &model.DonationRequest{RequesterEmail: "alice@x.com", DonationStatus: status}
		store.CreateDonationRequest(context.Background(), req)
		h := NewHandler(store, nil)
		mux := http.NewServeMux()
		mux.HandleFunc("PUT /donation-request/{id}", h.UpdateStatus)
		return h, req, mux
	}

	put := func(mux *http.ServeMux, id, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("PUT", "/donation-request/"+id, strings.NewReader(body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		return w
	}

	t.Run("pending -> inprogress with donor", func(t *testing.T) {
		_, req, mux := newHandlerWith(model.DonationStatusPending)
		w := put(mux, req.ID.Hex(), `{"donationStatus":"inprogress","donorEmail":"bob@x.com","donorName":"Bob"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if req.DonationStatus != model.DonationStatusInProgress {
			t.Errorf("status = %q, want inprogress", req.DonationStatus)
		}
		if req.DonorEmail == nil || *req.DonorEmail != "bob@x.com" {
			t.Errorf("donorEmail = %v, want bob@x.com", req.DonorEmail)
		}
	})

	t.Run("pending -> done rejected with 409", func(t *testing.T) {
		_, req, mux := newHandlerWith(model.DonationStatusPending)
		w := put(mux, req.ID.Hex(), `{"donationStatus":"done"}`)
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", w.Code)
		}
		if req.DonationStatus != model.DonationStatusPending {
			t.Error("document was modified by rejected transition")
		}
	})

	t.Run("done is terminal", func(t *testing.T) {
		_, req, mux := newHandlerWith(model.DonationStatusDone)
		for _, to := range []string{"pending", "inprogress", "canceled"} {
			w := put(mux, req.ID.Hex(), `{"donationStatus":"`+to+`"}`)
			if w.Code != http.StatusConflict {
				t.Errorf("done -> %s status = %d, want 409", to, w.Code)
			}
		}
	})

	t.Run("inprogress -> canceled allowed", func(t *testing.T) {
		_, req, mux := newHandlerWith(model.DonationStatusInProgress)
		if w := put(mux, req.ID.Hex(), `{"donationStatus":"canceled"}`); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		_ = req
	})

	t.Run("lone donorEmail rejected", func(t *testing.T) {
		_, req, mux := newHandlerWith(model.DonationStatusPending)
		w := put(mux, req.ID.Hex(), `{"donationStatus":"inprogress","donorEmail":"bob@x.com"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unknown status value rejected", func(t *testing.T) {
		_, req, mux := newHandlerWith(model.DonationStatusPending)
		w := put(mux, req.ID.Hex(), `{"donationStatus":"completed"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("malformed id -> 400", func(t *testing.T) {
		_, _, mux := newHandlerWith(model.DonationStatusPending)
		w := put(mux, "zzz", `{"donationStatus":"canceled"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unknown id -> 404", func(t *testing.T) {
		_, _, mux := newHandlerWith(model.DonationStatusPending)
		w := put(mux, bson.NewObjectID().Hex(), `{"donationStatus":"canceled"}`)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestStatusMetricRecorded(t *testing.T) {
	store := newMockStore()
	metrics := &stubMetrics{}
	h := NewHandler(store, metrics)
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /donation-request/{id}", h.UpdateStatus)

	body := `{"recipientName":"Rahim","bloodGroup":"B+"}`
	r := withIdentity(httptest.NewRequest("POST", "/create-donate-request", strings.NewReader(body)), "alice@x.com")
	h.Create(httptest.NewRecorder(), r)

	if len(metrics.statuses) != 1 || metrics.statuses[0] != "pending" {
		t.Fatalf("statuses after create = %v, want [pending]", metrics.statuses)
	}

	var id string
	for _, req := range store.requests {
		id = req.ID.Hex()
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("PUT", "/donation-request/"+id,
		strings.NewReader(`{"donationStatus":"inprogress","donorEmail":"bob@x.com","donorName":"Bob"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(metrics.statuses) != 2 || metrics.statuses[1] != "inprogress" {
		t.Errorf("statuses after transition = %v, want [pending inprogress]", metrics.statuses)
	}

	// 被拒绝的转移不计数
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("PUT", "/donation-request/"+id,
		strings.NewReader(`{"donationStatus":"pending"}`)))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if len(metrics.statuses) != 2 {
		t.Errorf("statuses after rejected transition = %v, want unchanged", metrics.statuses)
	}
}

func TestPatch_StripsProtectedFields(t *testing.T) {
	store := newMockStore()
	req := &model.DonationRequest{
		RequesterEmail: "alice@x.com",
		HospitalName:   "City Hospital",
		DonationStatus: model.DonationStatusPending,
	}
	store.CreateDonationRequest(context.Background(), req)
	h := NewHandler(store, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /donation-requests/{id}", h.Patch)

	body := `{"hospitalName":"General Hospital","donationStatus":"done","requesterEmail":"evil@x.com"}`
	r := httptest.NewRequest("PATCH", "/donation-requests/"+req.ID.Hex(), strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if req.HospitalName != "General Hospital" {
		t.Errorf("hospitalName = %q, want General Hospital", req.HospitalName)
	}
	if req.DonationStatus != model.DonationStatusPending || req.RequesterEmail != "alice@x.com" {
		t.Error("protected fields were modified through patch")
	}

	t.Run("only protected fields -> 400", func(t *testing.T) {
		r := httptest.NewRequest("PATCH", "/donation-requests/"+req.ID.Hex(), strings.NewReader(`{"donationStatus":"done"}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestDelete(t *testing.T) {
	store := newMockStore()
	req := &model.DonationRequest{RequesterEmail: "alice@x.com", DonationStatus: model.DonationStatusPending}
	store.CreateDonationRequest(context.Background(), req)
	h := NewHandler(store, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /donation-request/{id}", h.Delete)

	r := httptest.NewRequest("DELETE", "/donation-request/"+req.ID.Hex(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	// 再删 -> 404
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("DELETE", "/donation-request/"+req.ID.Hex(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestGetAndCounts(t *testing.T) {
	store := newMockStore()
	req := &model.DonationRequest{RequesterEmail: "alice@x.com", DonationStatus: model.DonationStatusPending}
	store.CreateDonationRequest(context.Background(), req)
	store.CreateDonationRequest(context.Background(), &model.DonationRequest{
		RequesterEmail: "bob@x.com", DonationStatus: model.DonationStatusDone,
	})
	h := NewHandler(store, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /donation-request/{id}", h.Get)

	r := httptest.NewRequest("GET", "/donation-request/"+req.ID.Hex(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("Get status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/donation-request/"+bson.NewObjectID().Hex(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Get(unknown) status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	h.Count(w, httptest.NewRequest("GET", "/all-donation-count?status=done", nil))
	var resp map[string]int64
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["count"] != 1 {
		t.Errorf("Count(done) = %d, want 1", resp["count"])
	}

	w = httptest.NewRecorder()
	h.CountMine(w, httptest.NewRequest("GET", "/all-my-donation-count?email=alice%40x.com", nil))
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["count"] != 1 {
		t.Errorf("CountMine(alice) = %d, want 1", resp["count"])
	}
}
