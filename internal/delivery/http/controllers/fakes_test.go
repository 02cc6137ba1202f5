package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// envelope mirrors helpers.APIResponse with undecoded data.
type envelope struct {
	Data  json.RawMessage   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	env := decodeEnvelope(t, rr)
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

// newRequest builds a request with an optional JSON body, authenticated as
// userID with role when userID is set.
func newRequest(method, target, body, userID string, role domain.Role) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if userID != "" {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), &domain.Principal{UserID: userID, Role: role}))
	}
	return req
}

type fakeAuthService struct {
	signUpErr error
	loginErr  error
	lastIn    domain.SignUpInput
	lastEmail string
}

func (f *fakeAuthService) SignUp(_ context.Context, in domain.SignUpInput) (string, *domain.User, error) {
	f.lastIn = in
	if f.signUpErr != nil {
		return "", nil, f.signUpErr
	}
	return "tok-signup", &domain.User{ID: "u-1", Email: in.Email, Role: domain.RoleParticipant}, nil
}

func (f *fakeAuthService) Login(_ context.Context, email, _ string) (string, *domain.User, error) {
	f.lastEmail = email
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "tok-login", &domain.User{ID: "u-1", Email: email, Role: domain.RoleParticipant}, nil
}

func (f *fakeAuthService) Authenticate(context.Context, string) (*domain.Principal, error) {
	return nil, domain.ErrInvalidCredentials
}

type fakeUserService struct {
	user       *domain.User
	err        error
	lastID     string
	lastUpdate domain.ProfileUpdate
	lastOrgID  string
	followed   bool
	unfollowed bool
}

func (f *fakeUserService) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.lastID = id
	return f.user, f.err
}

func (f *fakeUserService) UpdateProfile(_ context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	f.lastID, f.lastUpdate = id, upd
	return f.user, f.err
}

func (f *fakeUserService) ListOrganizers(context.Context) ([]*domain.User, error) {
	return []*domain.User{f.user}, f.err
}

func (f *fakeUserService) GetOrganizer(_ context.Context, id string) (*domain.User, error) {
	f.lastOrgID = id
	return f.user, f.err
}

func (f *fakeUserService) FollowOrganizer(_ context.Context, userID, organizerID string) (*domain.User, error) {
	f.lastID, f.lastOrgID, f.followed = userID, organizerID, true
	return f.user, f.err
}

func (f *fakeUserService) UnfollowOrganizer(_ context.Context, userID, organizerID string) (*domain.User, error) {
	f.lastID, f.lastOrgID, f.unfollowed = userID, organizerID, true
	return f.user, f.err
}

type fakeEventService struct {
	event           *domain.Event
	events          []*domain.Event
	total           int
	err             error
	lastOrganizerID string
	lastParams      domain.PaginationParams
	lastInput       domain.EventInput
	lastPatch       domain.EventPatch
	lastAction      domain.EventAction
	lastEventID     string
}

func (f *fakeEventService) Create(_ context.Context, organizerID string, in domain.EventInput) (*domain.Event, error) {
	f.lastOrganizerID, f.lastInput = organizerID, in
	return f.event, f.err
}

func (f *fakeEventService) Get(_ context.Context, id string) (*domain.Event, error) {
	f.lastEventID = id
	return f.event, f.err
}

func (f *fakeEventService) ListPublic(_ context.Context, organizerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastOrganizerID, f.lastParams = organizerID, params
	return f.events, f.total, f.err
}

func (f *fakeEventService) ListMine(_ context.Context, organizerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastOrganizerID, f.lastParams = organizerID, params
	return f.events, f.total, f.err
}

func (f *fakeEventService) Trending(context.Context) ([]*domain.Event, error) {
	return f.events, f.err
}

func (f *fakeEventService) Update(_ context.Context, eventID, organizerID string, patch domain.EventPatch, action domain.EventAction) (*domain.Event, error) {
	f.lastEventID, f.lastOrganizerID, f.lastPatch, f.lastAction = eventID, organizerID, patch, action
	return f.event, f.err
}

func (f *fakeEventService) SyncStatuses(context.Context) (int64, int64, error) { return 0, 0, nil }

type fakeRegistrationService struct {
	entry       *domain.Entry
	err         error
	lastEventID string
	lastUserID  string
	lastReq     domain.RegistrationRequest
}

func (f *fakeRegistrationService) Register(_ context.Context, eventID, userID string, req domain.RegistrationRequest) (*domain.Entry, error) {
	f.lastEventID, f.lastUserID, f.lastReq = eventID, userID, req
	return f.entry, f.err
}

func (f *fakeRegistrationService) ListMine(_ context.Context, userID string) ([]*domain.MyRegistration, error) {
	f.lastUserID = userID
	return nil, f.err
}

func (f *fakeRegistrationService) ListParticipants(_ context.Context, eventID, organizerID string) (*domain.ParticipantReport, error) {
	f.lastEventID, f.lastUserID = eventID, organizerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ParticipantReport{EventID: eventID, Total: 1}, nil
}

func (f *fakeRegistrationService) ListOrders(_ context.Context, eventID, organizerID string) (*domain.OrderReport, error) {
	f.lastEventID, f.lastUserID = eventID, organizerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OrderReport{EventID: eventID, Stock: 3}, nil
}

type fakePaymentService struct {
	err      error
	lastCall string
	lastNote string
	lastIDs  [3]string
}

func (f *fakePaymentService) Approve(_ context.Context, eventID, orderID, organizerID, note string) (*domain.Entry, error) {
	return f.resolve("approve", eventID, orderID, organizerID, note, domain.PaymentApproved)
}

func (f *fakePaymentService) Reject(_ context.Context, eventID, orderID, organizerID, note string) (*domain.Entry, error) {
	return f.resolve("reject", eventID, orderID, organizerID, note, domain.PaymentRejected)
}

func (f *fakePaymentService) resolve(call, eventID, orderID, organizerID, note string, status domain.PaymentStatus) (*domain.Entry, error) {
	f.lastCall, f.lastNote, f.lastIDs = call, note, [3]string{eventID, orderID, organizerID}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Entry{ID: orderID, EventID: eventID, PaymentStatus: status, Note: note}, nil
}

type fakeTicketService struct {
	domain.TicketService
	err         error
	lastCall    string
	lastPayload string
}

func (f *fakeTicketService) MarkAttendance(_ context.Context, eventID, entryID, _ string) (*domain.Entry, error) {
	f.lastCall = "mark"
	return f.entry(eventID, entryID, true)
}

func (f *fakeTicketService) UnmarkAttendance(_ context.Context, eventID, entryID, _ string) (*domain.Entry, error) {
	f.lastCall = "unmark"
	return f.entry(eventID, entryID, false)
}

func (f *fakeTicketService) CheckIn(_ context.Context, eventID, _ string, raw string) (*domain.Entry, error) {
	f.lastCall, f.lastPayload = "checkin", raw
	return f.entry(eventID, "en-1", true)
}

func (f *fakeTicketService) entry(eventID, entryID string, marked bool) (*domain.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Entry{ID: entryID, EventID: eventID, PaymentStatus: domain.PaymentApproved, AttendanceMarked: marked}, nil
}

type fakeForumService struct {
	err        error
	memberErr  error
	threads    []*domain.Thread
	lastPost   domain.PostInput
	lastCall   string
	lastMsgID  string
	lastEmoji  string
	lastUserID string
}

func (f *fakeForumService) CheckMember(_ context.Context, _, userID string) error {
	f.lastUserID = userID
	return f.memberErr
}

func (f *fakeForumService) Post(_ context.Context, in domain.PostInput) (*domain.Message, error) {
	f.lastCall, f.lastPost = "post", in
	return &domain.Message{ID: "m-1", EventID: in.EventID, Text: in.Text}, f.err
}

func (f *fakeForumService) React(_ context.Context, messageID, emoji, userID string) (*domain.Message, error) {
	f.lastCall, f.lastMsgID, f.lastEmoji, f.lastUserID = "react", messageID, emoji, userID
	return &domain.Message{ID: messageID}, f.err
}

func (f *fakeForumService) TogglePin(_ context.Context, messageID, userID string) (*domain.Message, error) {
	f.lastCall, f.lastMsgID, f.lastUserID = "pin", messageID, userID
	return &domain.Message{ID: messageID}, f.err
}

func (f *fakeForumService) Delete(_ context.Context, messageID, userID string) (*domain.Message, error) {
	f.lastCall, f.lastMsgID, f.lastUserID = "delete", messageID, userID
	return &domain.Message{ID: messageID}, f.err
}

func (f *fakeForumService) ListThreads(_ context.Context, _, userID string) ([]*domain.Thread, error) {
	f.lastUserID = userID
	return f.threads, f.err
}

type fakeNotificationService struct {
	err         error
	lastUserID  string
	lastEventID string
}

func (f *fakeNotificationService) List(_ context.Context, userID string) ([]*domain.Notification, error) {
	f.lastUserID = userID
	return nil, f.err
}

func (f *fakeNotificationService) MarkRead(_ context.Context, userID, eventID string) (int64, error) {
	f.lastUserID, f.lastEventID = userID, eventID
	return 2, f.err
}

func (f *fakeNotificationService) UnreadCount(_ context.Context, userID string) (int64, error) {
	f.lastUserID = userID
	return 5, f.err
}

type fakeAdminService struct {
	err    error
	lastID string
}

func (f *fakeAdminService) ListOrganizers(context.Context) ([]*domain.User, error) {
	return []*domain.User{{ID: "org-1", Disabled: true}}, f.err
}

func (f *fakeAdminService) ToggleOrganizerDisabled(_ context.Context, id string) (*domain.User, error) {
	f.lastID = id
	return &domain.User{ID: id, Disabled: true}, f.err
}

func (f *fakeAdminService) DeleteOrganizer(_ context.Context, id string) (int64, error) {
	f.lastID = id
	return 3, f.err
}

type fakeResetService struct {
	err        error
	lastID     string
	lastNote   string
	lastStatus domain.ResetStatus
	lastReason string
}

func (f *fakeResetService) Submit(_ context.Context, organizerID, reason string) (*domain.PasswordResetRequest, error) {
	f.lastID, f.lastReason = organizerID, reason
	return &domain.PasswordResetRequest{ID: "req-1", OrganizerID: organizerID, Reason: reason, Status: domain.ResetPending}, f.err
}

func (f *fakeResetService) ListMine(_ context.Context, organizerID string) ([]*domain.PasswordResetRequest, error) {
	f.lastID = organizerID
	return nil, f.err
}

func (f *fakeResetService) List(_ context.Context, status domain.ResetStatus) ([]*domain.PasswordResetRequest, error) {
	f.lastStatus = status
	return []*domain.PasswordResetRequest{{ID: "req-1", Status: domain.ResetPending}}, f.err
}

func (f *fakeResetService) Approve(_ context.Context, id, note string) (string, error) {
	f.lastID, f.lastNote = id, note
	if f.err != nil {
		return "", f.err
	}
	return "Generated123", nil
}

func (f *fakeResetService) Reject(_ context.Context, id, note string) error {
	f.lastID, f.lastNote = id, note
	return f.err
}
