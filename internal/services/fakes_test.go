package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"campusevents/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const testTimeout = 5 * time.Second

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(testLogger, 4, time.Second)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func copyEvent(e *domain.Event) *domain.Event {
	cp := *e
	cp.Entries = make([]*domain.Entry, 0, len(e.Entries))
	for _, en := range e.Entries {
		c := *en
		cp.Entries = append(cp.Entries, &c)
	}
	return &cp
}

// fakeEventRepo is an in-memory EventRepository for tests. It is safe for
// concurrent use and returns copies so callers cannot mutate stored state.
type fakeEventRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Event
	nextID    int
	err       error // if set, Create and GetByID return this error
	conflicts int   // number of Update calls that fail with ErrConflict
	updates   int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

// put stores e as-is (assigning an ID when empty) and returns its ID.
func (f *fakeEventRepo) put(e *domain.Event) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		e.ID = fmt.Sprintf("ev-%d", f.nextID)
		f.nextID++
	}
	f.byID[e.ID] = copyEvent(e)
	return e.ID
}

func (f *fakeEventRepo) stored(id string) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyEvent(f.byID[id])
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	e.Version = 1
	f.byID[e.ID] = copyEvent(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyEvent(e), nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if filter.OrganizerID != "" && e.OrganizerID != filter.OrganizerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if e.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		cp := copyEvent(e)
		cp.RegistrationCount = len(cp.Entries)
		cp.Entries = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if params.PageSize > 0 {
		start := min(params.Offset(), total)
		end := min(start+params.PageSize, total)
		out = out[start:end]
	}
	return out, total, nil
}

func (f *fakeEventRepo) ListByParticipant(ctx context.Context, userID string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		cp := copyEvent(e)
		cp.Entries = nil
		for _, en := range e.Entries {
			if en.UserID == userID {
				c := *en
				cp.Entries = append(cp.Entries, &c)
			}
		}
		if len(cp.Entries) > 0 {
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEventRepo) ListTrending(ctx context.Context, since time.Time, limit int) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if e.Status != domain.StatusPublished && e.Status != domain.StatusOngoing {
			continue
		}
		cp := copyEvent(e)
		for _, en := range e.Entries {
			if !en.RegisteredAt.Before(since) {
				cp.RecentRegistrations++
			}
		}
		cp.Entries = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecentRegistrations != out[j].RecentRegistrations {
			return out[i].RecentRegistrations > out[j].RecentRegistrations
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	stored, ok := f.byID[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if f.conflicts > 0 {
		f.conflicts--
		stored.Version++
		return domain.ErrConflict
	}
	if stored.Version != e.Version {
		return domain.ErrConflict
	}
	e.Version++
	next := copyEvent(e)
	next.Entries = stored.Entries
	f.byID[e.ID] = next
	return nil
}

func (f *fakeEventRepo) AppendEntry(ctx context.Context, entry *domain.Entry, limits domain.EntryLimits) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[entry.EventID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := limits.Check(e.ApprovedCount(), len(e.ActiveEntriesOf(entry.UserID)), e.Stock); err != nil {
		return err
	}
	c := *entry
	e.Entries = append(e.Entries, &c)
	return nil
}

func (f *fakeEventRepo) ResolveOrder(ctx context.Context, eventID, entryID string, status domain.PaymentStatus, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	en, ok := e.FindEntry(entryID)
	if !ok {
		return domain.ErrNotFound
	}
	if en.PaymentStatus != domain.PaymentPending {
		return domain.Conflict("order already " + strings.ToLower(string(en.PaymentStatus)))
	}
	if status == domain.PaymentApproved {
		if e.Stock <= 0 {
			return domain.Conflict("stock is exhausted")
		}
		e.Stock--
	}
	en.PaymentStatus = status
	en.Note = note
	return nil
}

func (f *fakeEventRepo) SetAttendance(ctx context.Context, eventID, entryID string, marked bool, at *time.Time) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	en, ok := e.FindEntry(entryID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if en.AttendanceMarked != marked {
		en.AttendanceMarked = marked
		en.AttendanceAt = at
	}
	return en.AttendanceAt, nil
}

func (f *fakeEventRepo) AdvanceStatuses(ctx context.Context, now time.Time) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var started, completed int64
	for _, e := range f.byID {
		if e.Status == domain.StatusPublished && e.StartDate != nil && !now.Before(*e.StartDate) {
			e.Status = domain.StatusOngoing
			started++
		}
		if e.Status == domain.StatusOngoing && e.EndDate != nil && !now.Before(*e.EndDate) {
			e.Status = domain.StatusCompleted
			completed++
		}
	}
	return started, completed, nil
}

func (f *fakeEventRepo) DeleteByOrganizer(ctx context.Context, organizerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, e := range f.byID {
		if e.OrganizerID == organizerID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

// gatedEventRepo holds each GetByID until n readers have arrived, so every
// caller works from a snapshot taken before any of them writes.
type gatedEventRepo struct {
	*fakeEventRepo
	arrived sync.WaitGroup
}

func newGatedEventRepo(events *fakeEventRepo, n int) *gatedEventRepo {
	g := &gatedEventRepo{fakeEventRepo: events}
	g.arrived.Add(n)
	return g
}

func (g *gatedEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := g.fakeEventRepo.GetByID(ctx, id)
	g.arrived.Done()
	g.arrived.Wait()
	return e, err
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.User
	nextID    int
	getErr    error
	updateErr error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User), nextID: 1}
	for _, u := range users {
		cp := *u
		f.byID[u.ID] = &cp
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role, includeDisabled bool) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.User
	for _, u := range f.byID {
		if u.Role == role && (includeDisabled || !u.Disabled) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, hash, salt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash, u.Salt = hash, salt
	return nil
}

func (f *fakeUserRepo) SetDisabled(ctx context.Context, id string, disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Disabled = disabled
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakePasswordHasher stores "hash-<salt>-<password>".
type fakePasswordHasher struct{}

func (fakePasswordHasher) GenerateSalt() (string, error) { return "salt", nil }
func (fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + salt + "-" + password, nil
}
func (fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+"-"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokens implements TokenIssuer and TokenVerifier with "token-<id>".
type fakeTokens struct {
	issueErr error
	roles    map[string]domain.Role
}

func (f *fakeTokens) Issue(userID, email string, role domain.Role, expiry time.Duration) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return "token-" + userID, nil
}

func (f *fakeTokens) Verify(token string) (*domain.Principal, error) {
	var id string
	if _, err := fmt.Sscanf(token, "token-%s", &id); err != nil || id == "" {
		return nil, errors.New("bad token")
	}
	return &domain.Principal{UserID: id, Role: f.roles[id]}, nil
}

// fakeTicketService records confirmations.
type fakeTicketService struct {
	mu        sync.Mutex
	confirmed []string
	err       error
}

func (f *fakeTicketService) Issue(event *domain.Event, entry *domain.Entry) (*domain.Ticket, error) {
	return &domain.Ticket{Payload: domain.NewTicketPayload(event, entry)}, nil
}

func (f *fakeTicketService) Confirm(ctx context.Context, event *domain.Event, entry *domain.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, entry.ID)
	return f.err
}

func (f *fakeTicketService) confirmedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.confirmed...)
}

func (f *fakeTicketService) Resolve(ctx context.Context, eventID string, payload domain.TicketPayload) (*domain.Entry, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeTicketService) MarkAttendance(ctx context.Context, eventID, entryID, organizerID string) (*domain.Entry, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeTicketService) UnmarkAttendance(ctx context.Context, eventID, entryID, organizerID string) (*domain.Entry, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeTicketService) CheckIn(ctx context.Context, eventID, organizerID, rawPayload string) (*domain.Entry, error) {
	return nil, errors.New("not implemented")
}

// fakeEmailService records ticket emails.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.TicketEmailData
	err  error
}

func (f *fakeEmailService) SendTicketConfirmation(ctx context.Context, data *domain.TicketEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

// fakeMailer records messages.
type fakeMailer struct {
	sent []*domain.EmailMessage
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeRenderer struct {
	lastTemplate string
	err          error
}

func (f *fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	f.lastTemplate = templateName
	if f.err != nil {
		return "", "", "", f.err
	}
	return "subject", "<p>html</p>", "text", nil
}

type fakeQR struct {
	last string
	err  error
}

func (f *fakeQR) EncodePNG(content string) ([]byte, error) {
	f.last = content
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + content), nil
}

// fakeWebhook records published events.
type fakeWebhook struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeWebhook) EventPublished(ctx context.Context, url string, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url+" "+e.Name)
	return f.err
}

func (f *fakeWebhook) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeMessageStore is an in-memory MessageStore.
type fakeMessageStore struct {
	byID  map[string]*domain.Message
	order []string
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{byID: make(map[string]*domain.Message)}
}

func (f *fakeMessageStore) Create(ctx context.Context, m *domain.Message) error {
	cp := *m
	f.byID[m.ID] = &cp
	f.order = append(f.order, m.ID)
	return nil
}

func (f *fakeMessageStore) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) ListByEvent(ctx context.Context, eventID string) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, id := range f.order {
		if m := f.byID[id]; m.EventID == eventID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListReplies(ctx context.Context, parentID string) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, id := range f.order {
		if m := f.byID[id]; m.ParentID == parentID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ToggleReaction(ctx context.Context, id, emoji, userID string) (*domain.Message, bool, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	if m.Reactions == nil {
		m.Reactions = map[string][]string{}
	}
	users := m.Reactions[emoji]
	for i, u := range users {
		if u == userID {
			m.Reactions[emoji] = append(users[:i:i], users[i+1:]...)
			if len(m.Reactions[emoji]) == 0 {
				delete(m.Reactions, emoji)
			}
			cp := *m
			return &cp, false, nil
		}
	}
	m.Reactions[emoji] = append(users, userID)
	cp := *m
	return &cp, true, nil
}

func (f *fakeMessageStore) SetPinned(ctx context.Context, id string, pinned bool) (*domain.Message, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.IsPinned = pinned
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) SoftDelete(ctx context.Context, id string) (*domain.Message, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.IsDeleted = true
	cp := *m
	return &cp, nil
}

// fakeNotificationStore is an in-memory NotificationStore.
type fakeNotificationStore struct {
	items []*domain.Notification
	err   error
}

func (f *fakeNotificationStore) CreateMany(ctx context.Context, ns []*domain.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, ns...)
	return nil
}

func (f *fakeNotificationStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		if f.items[i].UserID == userID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, userID, eventID string) (int64, error) {
	var n int64
	for _, it := range f.items {
		if it.UserID == userID && !it.Read && (eventID == "" || it.EventID == eventID) {
			it.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeNotificationStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	for _, it := range f.items {
		if it.UserID == userID && !it.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotificationStore) forUser(userID string) []*domain.Notification {
	var out []*domain.Notification
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out
}

type hubFrame struct {
	target string
	typ    string
	data   any
}

// fakeHub records broadcasts and pushes; presence is set by the test.
type fakeHub struct {
	rooms      map[string]map[string]bool
	online     map[string]bool
	broadcasts []hubFrame
	pushes     []hubFrame
}

func newFakeHub() *fakeHub {
	return &fakeHub{rooms: map[string]map[string]bool{}, online: map[string]bool{}}
}

func (h *fakeHub) join(eventID, userID string) {
	if h.rooms[eventID] == nil {
		h.rooms[eventID] = map[string]bool{}
	}
	h.rooms[eventID][userID] = true
	h.online[userID] = true
}

func (h *fakeHub) InRoom(eventID, userID string) bool { return h.rooms[eventID][userID] }
func (h *fakeHub) Online(userID string) bool          { return h.online[userID] }
func (h *fakeHub) Broadcast(eventID, frameType string, data any) {
	h.broadcasts = append(h.broadcasts, hubFrame{eventID, frameType, data})
}
func (h *fakeHub) PushToUser(userID, frameType string, data any) {
	h.pushes = append(h.pushes, hubFrame{userID, frameType, data})
}

// fakeResetRepo is an in-memory PasswordResetRepository.
type fakeResetRepo struct {
	byID   map[string]*domain.PasswordResetRequest
	nextID int
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{byID: map[string]*domain.PasswordResetRequest{}, nextID: 1}
}

func (f *fakeResetRepo) Create(ctx context.Context, req *domain.PasswordResetRequest) error {
	req.ID = fmt.Sprintf("req-%d", f.nextID)
	f.nextID++
	cp := *req
	f.byID[req.ID] = &cp
	return nil
}

func (f *fakeResetRepo) GetByID(ctx context.Context, id string) (*domain.PasswordResetRequest, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResetRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.PasswordResetRequest, error) {
	var out []*domain.PasswordResetRequest
	for _, r := range f.byID {
		if r.OrganizerID == organizerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResetRepo) List(ctx context.Context, status domain.ResetStatus) ([]*domain.PasswordResetRequest, error) {
	var out []*domain.PasswordResetRequest
	for _, r := range f.byID {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResetRepo) HasPending(ctx context.Context, organizerID string) (bool, error) {
	for _, r := range f.byID {
		if r.OrganizerID == organizerID && r.Status == domain.ResetPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeResetRepo) Resolve(ctx context.Context, id string, status domain.ResetStatus, note string) error {
	r, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Status != domain.ResetPending {
		return domain.ErrConflict
	}
	r.Status = status
	r.AdminNote = note
	return nil
}

// fixtures

var (
	baseNow   = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	organizer = &domain.User{ID: "org-1", Email: "club@iiit.ac.in", Role: domain.RoleOrganizer, OrganizerName: "Coding Club", DiscordWebhook: "https://discord.test/hook"}
)

func participant(id string, pt domain.ParticipantType) *domain.User {
	return &domain.User{ID: id, Email: id + "@students.iiit.ac.in", Role: domain.RoleParticipant, FirstName: id, ParticipantType: pt}
}

func tp(t time.Time) *time.Time { return &t }

// publishedEvent starts in 72h and closes registrations in 48h.
func publishedEvent(limit int) *domain.Event {
	e := domain.NewEvent(organizer.ID, "Hackathon", baseNow.Add(-time.Hour))
	e.Status = domain.StatusPublished
	e.Description = "24h build"
	e.StartDate = tp(baseNow.Add(72 * time.Hour))
	e.EndDate = tp(baseNow.Add(96 * time.Hour))
	e.RegistrationDeadline = tp(baseNow.Add(48 * time.Hour))
	e.RegistrationLimit = limit
	e.Location = "H105"
	e.Version = 1
	return e
}

func merchEvent(stock, purchaseLimit int) *domain.Event {
	e := publishedEvent(0)
	e.Name = "Club Hoodie"
	e.Type = domain.EventTypeMerchandise
	e.Stock = stock
	e.PurchaseLimit = purchaseLimit
	e.Price = 499
	e.UPIID = "club@upi"
	e.Variants = []domain.Variant{{Name: "Size", Options: []string{"S", "M", "L"}}}
	return e
}
