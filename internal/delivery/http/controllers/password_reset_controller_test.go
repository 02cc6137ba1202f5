package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"campusevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetController(t *testing.T) {
	svc := &fakeResetService{}
	c := NewPasswordResetController(testLogger, svc)

	rr := httptest.NewRecorder()
	c.Submit(rr, newRequest(http.MethodPost, "/password-reset-requests", `{"reason":"forgot it"}`, "org-1", domain.RoleOrganizer))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "forgot it", svc.lastReason)

	rr = httptest.NewRecorder()
	c.Submit(rr, newRequest(http.MethodPost, "/password-reset-requests", `{"reason":"  "}`, "org-1", domain.RoleOrganizer))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	c.ListMine(rr, newRequest(http.MethodGet, "/password-reset-requests/mine", "", "org-1", domain.RoleOrganizer))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[],"error":null}`, rr.Body.String())

	rr = httptest.NewRecorder()
	c.List(rr, newRequest(http.MethodGet, "/admin/password-reset-requests?status=Pending", "", "admin-1", domain.RoleAdmin))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.ResetPending, svc.lastStatus)

	req := newRequest(http.MethodPost, "/admin/password-reset-requests/req-1/approve", `{"note":"verified by phone"}`, "admin-1", domain.RoleAdmin)
	req.SetPathValue("requestID", "req-1")
	rr = httptest.NewRecorder()
	c.Approve(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var approved ApproveResetResponse
	decodeData(t, rr, &approved)
	assert.Equal(t, "Generated123", approved.NewPassword)
	assert.Equal(t, "verified by phone", svc.lastNote)

	req = newRequest(http.MethodPost, "/admin/password-reset-requests/req-1/reject", "", "admin-1", domain.RoleAdmin)
	req.SetPathValue("requestID", "req-1")
	svc.err = domain.Conflict("request already resolved")
	rr = httptest.NewRecorder()
	c.Reject(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)
}
