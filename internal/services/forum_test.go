package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campusevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forumFixture struct {
	events   *fakeEventRepo
	messages *fakeMessageStore
	notes    *fakeNotificationStore
	hub      *fakeHub
	svc      *forumService
	eventID  string
	clock    time.Time
}

// newForumFixture sets up an event with participants a, b and c registered
// (c's entry is Rejected) and d not registered.
func newForumFixture(policy domain.ForumPolicy) *forumFixture {
	ev := publishedEvent(0)
	ev.Entries = []*domain.Entry{
		{ID: "ea", UserID: "a", PaymentStatus: domain.PaymentApproved},
		{ID: "eb", UserID: "b", PaymentStatus: domain.PaymentApproved},
		{ID: "ec", UserID: "c", PaymentStatus: domain.PaymentRejected},
	}
	f := &forumFixture{
		events:   newFakeEventRepo(),
		messages: newFakeMessageStore(),
		notes:    &fakeNotificationStore{},
		hub:      newFakeHub(),
		clock:    baseNow,
	}
	f.eventID = f.events.put(ev)
	users := newFakeUserRepo(organizer,
		participant("a", domain.ParticipantIIIT),
		participant("b", domain.ParticipantIIIT),
		participant("c", domain.ParticipantIIIT),
		participant("d", domain.ParticipantIIIT),
	)
	f.svc = NewForumService(f.events, users, f.messages, f.notes, f.hub, policy, testLogger, testTimeout).(*forumService)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func (f *forumFixture) post(t *testing.T, userID, text, parentID string) *domain.Message {
	t.Helper()
	m, err := f.svc.Post(context.Background(), domain.PostInput{EventID: f.eventID, UserID: userID, Text: text, ParentID: parentID})
	require.NoError(t, err)
	return m
}

func TestForumService_Announcements(t *testing.T) {
	f := newForumFixture(domain.DefaultForumPolicy())

	orgPost := f.post(t, organizer.ID, "Venue changed to H205", "")
	assert.True(t, orgPost.IsAnnouncement)
	assert.Equal(t, "Coding Club", orgPost.AuthorName)

	partPost := f.post(t, "a", "See you there", "")
	assert.False(t, partPost.IsAnnouncement)

	t.Run("announcement notifies active participants only", func(t *testing.T) {
		assert.Len(t, f.notes.forUser("a"), 1)
		assert.Len(t, f.notes.forUser("b"), 1)
		assert.Empty(t, f.notes.forUser("c"), "rejected entry")
		assert.Empty(t, f.notes.forUser(organizer.ID), "sender excluded")
		n := f.notes.forUser("a")[0]
		assert.Equal(t, domain.NotificationAnnouncement, n.Kind)
		assert.Equal(t, "Hackathon", n.EventName)
		assert.Equal(t, "Coding Club", n.SenderName)
	})

	t.Run("participant top-level post notifies nobody", func(t *testing.T) {
		assert.Len(t, f.notes.items, 2)
	})

	t.Run("both posts broadcast", func(t *testing.T) {
		require.Len(t, f.hub.broadcasts, 2)
		assert.Equal(t, domain.FrameNewMessage, f.hub.broadcasts[0].typ)
		assert.Equal(t, f.eventID, f.hub.broadcasts[0].target)
	})

	t.Run("policy can turn announcements off", func(t *testing.T) {
		p := domain.DefaultForumPolicy()
		p.AnnounceOrganizerTopLevel = false
		g := newForumFixture(p)
		m := g.post(t, organizer.ID, "hello", "")
		assert.False(t, m.IsAnnouncement)
		assert.Empty(t, g.notes.items)
	})
}

func TestForumService_PresenceDecidesDelivery(t *testing.T) {
	f := newForumFixture(domain.DefaultForumPolicy())
	// a watches the room, b is connected elsewhere.
	f.hub.join(f.eventID, "a")
	f.hub.online["b"] = true

	f.post(t, organizer.ID, "Doors open at 9", "")

	assert.Empty(t, f.notes.forUser("a"), "in the room: the broadcast is enough")
	require.Len(t, f.notes.forUser("b"), 1)
	require.Len(t, f.hub.pushes, 1)
	assert.Equal(t, "b", f.hub.pushes[0].target)
	assert.Equal(t, domain.FrameLiveNotification, f.hub.pushes[0].typ)
}

func TestForumService_RepliesFlattenAndNotifyThread(t *testing.T) {
	f := newForumFixture(domain.DefaultForumPolicy())

	root := f.post(t, "a", "Anyone forming a team?", "")
	r1 := f.post(t, "b", "Me!", root.ID)
	assert.Equal(t, root.ID, r1.ParentID)
	assert.False(t, r1.IsAnnouncement)

	r2 := f.post(t, organizer.ID, "Teams of 3 max", r1.ID)
	assert.Equal(t, root.ID, r2.ParentID, "reply to a reply attaches to the thread root")
	assert.False(t, r2.IsAnnouncement, "organizer replies are not announcements")

	aKinds := []string{}
	for _, n := range f.notes.forUser("a") {
		aKinds = append(aKinds, n.Kind)
	}
	assert.Equal(t, []string{domain.NotificationReply, domain.NotificationReply}, aKinds)
	assert.Len(t, f.notes.forUser("b"), 1, "b is notified of the organizer reply, not of their own")
	assert.Empty(t, f.notes.forUser(organizer.ID))

	threads, err := f.svc.ListThreads(context.Background(), f.eventID, "a")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Len(t, threads[0].Replies, 2)
	assert.Equal(t, r1.ID, threads[0].Replies[0].ID)
	assert.Equal(t, r2.ID, threads[0].Replies[1].ID)
}

func TestForumService_DeeperThreadPolicy(t *testing.T) {
	p := domain.DefaultForumPolicy()
	p.MaxThreadDepth = 2
	f := newForumFixture(p)

	root := f.post(t, "a", "root", "")
	r1 := f.post(t, "b", "depth 1", root.ID)
	r2 := f.post(t, "a", "depth 2", r1.ID)
	r3 := f.post(t, "b", "would be depth 3", r2.ID)

	assert.Equal(t, r1.ID, r2.ParentID)
	assert.Equal(t, r1.ID, r3.ParentID)

	threads, err := f.svc.ListThreads(context.Background(), f.eventID, "a")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Len(t, threads[0].Replies, 3)
}

func TestForumService_PostValidation(t *testing.T) {
	ctx := context.Background()
	f := newForumFixture(domain.DefaultForumPolicy())

	tests := []struct {
		name    string
		in      domain.PostInput
		wantErr error
	}{
		{"empty after sanitising", domain.PostInput{UserID: "a", Text: "  <b></b> "}, domain.ErrInvalidInput},
		{"not a member", domain.PostInput{UserID: "d", Text: "hi"}, domain.ErrForbidden},
		{"rejected entry is not a member", domain.PostInput{UserID: "c", Text: "hi"}, domain.ErrForbidden},
		{"unknown parent", domain.PostInput{UserID: "a", Text: "hi", ParentID: "nope"}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.EventID = f.eventID
			_, err := f.svc.Post(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	t.Run("html stripped and text bounded", func(t *testing.T) {
		m := f.post(t, "a", "<script>alert(1)</script><b>bold</b> "+strings.Repeat("x", 3000), "")
		assert.NotContains(t, m.Text, "<")
		assert.True(t, strings.HasPrefix(m.Text, "bold "))
		assert.Equal(t, 2000, len([]rune(m.Text)))
	})

	t.Run("reply to deleted message", func(t *testing.T) {
		root := f.post(t, "a", "to delete", "")
		_, err := f.svc.Delete(ctx, root.ID, organizer.ID)
		require.NoError(t, err)
		_, err = f.svc.Post(ctx, domain.PostInput{EventID: f.eventID, UserID: "b", Text: "late", ParentID: root.ID})
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})
}

func TestForumService_Reactions(t *testing.T) {
	ctx := context.Background()
	f := newForumFixture(domain.DefaultForumPolicy())
	m := f.post(t, "a", "Great talk today", "")

	updated, err := f.svc.React(ctx, m.ID, "🔥", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, updated.Reactions["🔥"])
	require.Len(t, f.notes.forUser("a"), 1)
	n := f.notes.forUser("a")[0]
	assert.Equal(t, domain.NotificationReaction, n.Kind)
	assert.Equal(t, "b", n.SenderName)
	assert.Contains(t, n.Text, "🔥")

	updated, err = f.svc.React(ctx, m.ID, "🔥", "b")
	require.NoError(t, err)
	assert.Empty(t, updated.Reactions["🔥"])
	assert.Len(t, f.notes.forUser("a"), 1, "removing a reaction does not notify")

	_, err = f.svc.React(ctx, m.ID, "👍", "a")
	require.NoError(t, err)
	assert.Len(t, f.notes.forUser("a"), 1, "own reactions do not notify")

	last := f.hub.broadcasts[len(f.hub.broadcasts)-1]
	assert.Equal(t, domain.FrameReactionUpdate, last.typ)

	_, err = f.svc.React(ctx, m.ID, "👍", "d")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = f.svc.React(ctx, m.ID, " ", "b")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestForumService_Moderation(t *testing.T) {
	ctx := context.Background()
	f := newForumFixture(domain.DefaultForumPolicy())
	first := f.post(t, "a", "first", "")
	second := f.post(t, "b", "second", "")
	third := f.post(t, "a", "third", "")

	_, err := f.svc.TogglePin(ctx, second.ID, "a")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	pinned, err := f.svc.TogglePin(ctx, second.ID, organizer.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)

	_, err = f.svc.Delete(ctx, third.ID, "a")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	deleted, err := f.svc.Delete(ctx, third.ID, organizer.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)

	threads, err := f.svc.ListThreads(ctx, f.eventID, "b")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, second.ID, threads[0].ID, "pinned first")
	assert.Equal(t, first.ID, threads[1].ID)

	types := []string{}
	for _, b := range f.hub.broadcasts {
		types = append(types, b.typ)
	}
	assert.Contains(t, types, domain.FrameMessagePinned)
	assert.Contains(t, types, domain.FrameMessageDeleted)

	unpinned, err := f.svc.TogglePin(ctx, second.ID, organizer.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
}
