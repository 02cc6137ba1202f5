package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"campusevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationController_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{
			name:       "registered",
			body:       `{"responses":[{"key":"Team name","value":"Rockets"}]}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "order with proof",
			body:       `{"responses":[{"key":"Size","value":"M"}],"payment_proof_url":"https://img.example.com/p.png"}`,
			wantStatus: http.StatusCreated,
		},
		{name: "blank response key", body: `{"responses":[{"key":" ","value":"x"}]}`, wantStatus: http.StatusBadRequest},
		{name: "already registered", body: `{}`, svcErr: domain.Conflict("already registered"), wantStatus: http.StatusConflict},
		{name: "ineligible", body: `{}`, svcErr: domain.Forbidden("this event is open to IIIT participants only"), wantStatus: http.StatusForbidden},
		{name: "unknown event", body: `{}`, svcErr: domain.ErrNotFound, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRegistrationService{entry: &domain.Entry{ID: "en-1", PaymentStatus: domain.PaymentApproved}, err: tt.svcErr}
			c := NewRegistrationController(testLogger, svc, &fakePaymentService{})
			req := newRequest(http.MethodPost, "/events/ev-1/registrations", tt.body, "u-1", domain.RoleParticipant)
			req.SetPathValue("eventID", "ev-1")
			rr := httptest.NewRecorder()

			c.Register(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, "ev-1", svc.lastEventID)
				assert.Equal(t, "u-1", svc.lastUserID)
				require.Len(t, svc.lastReq.Responses, 1)
			}
		})
	}
}

func TestRegistrationController_Reports(t *testing.T) {
	svc := &fakeRegistrationService{}
	c := NewRegistrationController(testLogger, svc, &fakePaymentService{})

	rr := httptest.NewRecorder()
	c.ListMine(rr, newRequest(http.MethodGet, "/registrations/mine", "", "u-1", domain.RoleParticipant))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[],"error":null}`, rr.Body.String())

	req := newRequest(http.MethodGet, "/events/ev-1/participants", "", "org-1", domain.RoleOrganizer)
	req.SetPathValue("eventID", "ev-1")
	rr = httptest.NewRecorder()
	c.ListParticipants(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var report domain.ParticipantReport
	decodeData(t, rr, &report)
	assert.Equal(t, "ev-1", report.EventID)
	assert.Equal(t, "org-1", svc.lastUserID)

	req = newRequest(http.MethodGet, "/events/ev-1/orders", "", "org-1", domain.RoleOrganizer)
	req.SetPathValue("eventID", "ev-1")
	rr = httptest.NewRecorder()
	c.ListOrders(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var orders domain.OrderReport
	decodeData(t, rr, &orders)
	assert.Equal(t, 3, orders.Stock)

	svc.err = domain.Forbidden("not your event")
	rr = httptest.NewRecorder()
	c.ListOrders(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRegistrationController_ResolveOrder(t *testing.T) {
	tests := []struct {
		name        string
		approve     bool
		body        string
		svcErr      error
		wantStatus  int
		wantNote    string
		wantPayment domain.PaymentStatus
	}{
		{name: "approve without body", approve: true, wantStatus: http.StatusOK, wantPayment: domain.PaymentApproved},
		{name: "approve with note", approve: true, body: `{"note":"paid via UPI"}`, wantStatus: http.StatusOK, wantNote: "paid via UPI", wantPayment: domain.PaymentApproved},
		{name: "reject with note", body: `{"note":"blurry proof"}`, wantStatus: http.StatusOK, wantNote: "blurry proof", wantPayment: domain.PaymentRejected},
		{name: "out of stock", approve: true, svcErr: domain.Conflict("out of stock"), wantStatus: http.StatusConflict},
		{name: "malformed note", body: `{"note":`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pay := &fakePaymentService{err: tt.svcErr}
			c := NewRegistrationController(testLogger, &fakeRegistrationService{}, pay)
			action := "reject"
			if tt.approve {
				action = "approve"
			}
			req := newRequest(http.MethodPost, "/events/ev-1/orders/ord-1/"+action, tt.body, "org-1", domain.RoleOrganizer)
			req.SetPathValue("eventID", "ev-1")
			req.SetPathValue("orderID", "ord-1")
			rr := httptest.NewRecorder()

			if tt.approve {
				c.ApproveOrder(rr, req)
			} else {
				c.RejectOrder(rr, req)
			}

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, action, pay.lastCall)
			assert.Equal(t, [3]string{"ev-1", "ord-1", "org-1"}, pay.lastIDs)
			assert.Equal(t, tt.wantNote, pay.lastNote)
			var entry domain.Entry
			decodeData(t, rr, &entry)
			assert.Equal(t, tt.wantPayment, entry.PaymentStatus)
		})
	}
}
