package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/internal/orders"
	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	"github.com/rcmanalo/buildmart-backend/pkg/outbox"
	"github.com/rcmanalo/buildmart-backend/pkg/pagination"
)

type testOrdersService struct {
	advanceFn func(ctx context.Context, input orders.AdvanceInput) error
	rejectFn  func(ctx context.Context, input orders.RejectInput) error
}

func (s *testOrdersService) AdvanceStatus(ctx context.Context, input orders.AdvanceInput) error {
	if s.advanceFn != nil {
		return s.advanceFn(ctx, input)
	}
	return nil
}

func (s *testOrdersService) Reject(ctx context.Context, input orders.RejectInput) error {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, input)
	}
	return nil
}

func (s *testOrdersService) MirrorDeliveryProgress(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, target enums.OrderStatus, actor *outbox.ActorRef) error {
	return nil
}

func (s *testOrdersService) CancelFromDelivery(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef) error {
	return nil
}

type testOrdersRepo struct {
	findOrderFn  func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	listOrdersFn func(ctx context.Context, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error)
}

func (r *testOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return r }

func (r *testOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if r.findOrderFn != nil {
		return r.findOrderFn(ctx, orderID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *testOrdersRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return nil
}

func (r *testOrdersRepo) UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return nil
}

func (r *testOrdersRepo) CreateDelivery(ctx context.Context, delivery *models.Delivery) error {
	return nil
}

func (r *testOrdersRepo) UpdateDeliveryStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) error {
	return nil
}

func (r *testOrdersRepo) ListOrders(ctx context.Context, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error) {
	if r.listOrdersFn != nil {
		return r.listOrdersFn(ctx, params, filters)
	}
	return &orders.OrderList{}, nil
}

func TestAdvanceOrderStatusSuccess(t *testing.T) {
	actorID := uuid.New()
	orderID := uuid.New()
	called := false
	svc := &testOrdersService{
		advanceFn: func(ctx context.Context, input orders.AdvanceInput) error {
			called = true
			if input.OrderID != orderID {
				t.Fatalf("unexpected order %s", input.OrderID)
			}
			if input.Target != enums.OrderStatusProcessing {
				t.Fatalf("unexpected target %s", input.Target)
			}
			if input.ActorUserID != actorID {
				t.Fatalf("unexpected actor %s", input.ActorUserID)
			}
			return nil
		},
	}

	body := strings.NewReader(`{"target":"processing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", body)
	req = authedRequest(req, actorID, enums.ActorRoleAdmin)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler := AdvanceOrderStatus(svc, testLogger())
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != "processing" {
		t.Fatalf("unexpected status payload %q", envelope.Data["status"])
	}
}

func TestAdvanceOrderStatusInvalidTarget(t *testing.T) {
	orderID := uuid.New()
	body := strings.NewReader(`{"target":"shipped"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", body)
	req = authedRequest(req, uuid.New(), enums.ActorRoleAdmin)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler := AdvanceOrderStatus(&testOrdersService{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdvanceOrderStatusMissingIdentity(t *testing.T) {
	orderID := uuid.New()
	body := strings.NewReader(`{"target":"processing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", body)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler := AdvanceOrderStatus(&testOrdersService{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRejectOrderRequiresReason(t *testing.T) {
	orderID := uuid.New()
	body := strings.NewReader(`{"reason":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/reject", body)
	req = authedRequest(req, uuid.New(), enums.ActorRoleAdmin)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler := RejectOrder(&testOrdersService{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRejectOrderTrimsReason(t *testing.T) {
	orderID := uuid.New()
	svc := &testOrdersService{
		rejectFn: func(ctx context.Context, input orders.RejectInput) error {
			if input.Reason != "out of stock" {
				t.Fatalf("unexpected reason %q", input.Reason)
			}
			return nil
		},
	}
	body := strings.NewReader(`{"reason":"  out of stock  "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/reject", body)
	req = authedRequest(req, uuid.New(), enums.ActorRoleAdmin)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler := RejectOrder(svc, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestOrderDetailNotFound(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = authedRequest(req, uuid.New(), enums.ActorRoleAdmin)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler := OrderDetail(&testOrdersRepo{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderDetailForbiddenForOtherCustomer(t *testing.T) {
	orderID := uuid.New()
	repo := &testOrdersRepo{
		findOrderFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: id, CustomerID: uuid.New()}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = authedRequest(req, uuid.New(), enums.ActorRoleCustomer)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler := OrderDetail(repo, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestOrderDetailOwnerAllowed(t *testing.T) {
	orderID := uuid.New()
	customerID := uuid.New()
	repo := &testOrdersRepo{
		findOrderFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: id, CustomerID: customerID}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = authedRequest(req, customerID, enums.ActorRoleCustomer)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler := OrderDetail(repo, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListOrdersInvalidStatusFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/?status=bogus", nil)
	req = authedRequest(req, uuid.New(), enums.ActorRoleAdmin)

	resp := httptest.NewRecorder()
	handler := ListOrders(&testOrdersRepo{}, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListOrdersPassesFilters(t *testing.T) {
	customerID := uuid.New()
	repo := &testOrdersRepo{
		listOrdersFn: func(ctx context.Context, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error) {
			if filters.Status == nil || *filters.Status != enums.OrderStatusReady {
				t.Fatalf("unexpected status filter %v", filters.Status)
			}
			if filters.CustomerID == nil || *filters.CustomerID != customerID {
				t.Fatalf("unexpected customer filter %v", filters.CustomerID)
			}
			if params.Limit != 5 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return &orders.OrderList{}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/?status=ready&customerId="+customerID.String()+"&limit=5", nil)
	req = authedRequest(req, uuid.New(), enums.ActorRoleAdmin)

	resp := httptest.NewRecorder()
	handler := ListOrders(repo, testLogger())
	handler(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}
