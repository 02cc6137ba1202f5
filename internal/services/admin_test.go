package services

import (
	"context"
	"errors"
	"testing"

	"campusevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	o1 := &domain.User{ID: "o1", Role: domain.RoleOrganizer}
	o2 := &domain.User{ID: "o2", Role: domain.RoleOrganizer, Disabled: true}
	p := &domain.User{ID: "p1", Role: domain.RoleParticipant}
	users := newFakeUserRepo(o1, o2, p)
	events := newFakeEventRepo()
	for _, owner := range []string{"o1", "o1", "o2"} {
		ev := publishedEvent(0)
		ev.OrganizerID = owner
		events.put(ev)
	}
	svc := NewAdminService(users, events, testTimeout)

	list, err := svc.ListOrganizers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2, "disabled organizers included")

	u, err := svc.ToggleOrganizerDisabled(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, u.Disabled)
	assert.True(t, users.byID["o1"].Disabled)
	u, err = svc.ToggleOrganizerDisabled(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, u.Disabled)

	_, err = svc.ToggleOrganizerDisabled(ctx, "p1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	n, err := svc.DeleteOrganizer(ctx, "o1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NotContains(t, users.byID, "o1")
	assert.Len(t, events.byID, 1)

	_, err = svc.DeleteOrganizer(ctx, "o1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
