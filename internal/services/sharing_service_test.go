package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/whenworks/calendar-api/internal/models"
	appErr "github.com/whenworks/calendar-api/pkg/errors"
)

func TestShareIsDirectional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	_, err := f.sharing.ShareWith(ctx, alice, bob.ID)
	require.NoError(t, err)

	// bob sees alice among "shared with me"
	sharers, err := f.sharing.ListSharedWithMe(ctx, bob)
	require.NoError(t, err)
	require.Len(t, sharers, 1)
	require.Equal(t, alice.ID, sharers[0].ID)

	// alice does not see bob among hers unless bob shares back
	_, err = f.sharing.ListSharedWithMe(ctx, alice)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = f.sharing.ShareWith(ctx, bob, alice.ID)
	require.NoError(t, err)
	sharers, err = f.sharing.ListSharedWithMe(ctx, alice)
	require.NoError(t, err)
	require.Len(t, sharers, 1)
	require.Equal(t, bob.ID, sharers[0].ID)
}

func TestListSharedByMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	_, err := f.sharing.ListSharedByMe(ctx, alice)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = f.sharing.ShareWith(ctx, alice, bob.ID)
	require.NoError(t, err)

	recipients, err := f.sharing.ListSharedByMe(ctx, alice)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	require.Equal(t, bob.ID, recipients[0].ID)

	// the recipient's own outgoing list stays empty
	_, err = f.sharing.ListSharedByMe(ctx, bob)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestShareIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	_, err := f.sharing.ShareWith(ctx, alice, bob.ID)
	require.NoError(t, err)
	_, err = f.sharing.ShareWith(ctx, alice, bob.ID)
	require.NoError(t, err)

	var n int64
	require.NoError(t, f.db.Model(&models.CalendarShare{}).
		Where("sharer_id = ? AND shared_with_id = ?", alice.ID, bob.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestUnshareMissingEdgeIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	require.NoError(t, f.sharing.UnshareWith(ctx, alice, bob.ID))

	// unknown target is still an error
	err := f.sharing.UnshareWith(ctx, alice, bob.ID+99)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestShareWithUnknownUser(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "alice@x.com")

	_, err := f.sharing.ShareWith(context.Background(), alice, alice.ID+99)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	require.Contains(t, err.Error(), "User not found")
}

func TestShareWithSelfRejected(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice", "alice@x.com")

	_, err := f.sharing.ShareWith(context.Background(), alice, alice.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestAcceptAndRevokeIncomingShare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	// bob attaches himself as a recipient of alice's calendar
	me, err := f.sharing.AcceptIncomingShare(ctx, bob, alice.ID)
	require.NoError(t, err)
	require.Equal(t, bob.ID, me.ID)

	sharers, err := f.sharing.ListSharedWithMe(ctx, bob)
	require.NoError(t, err)
	require.Len(t, sharers, 1)
	require.Equal(t, alice.ID, sharers[0].ID)

	require.NoError(t, f.sharing.RevokeIncomingShare(ctx, bob, alice.ID))
	_, err = f.sharing.ListSharedWithMe(ctx, bob)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestGetSharedCalendarRequiresEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	_, err := f.sharing.GetSharedCalendar(ctx, bob, alice.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	require.Contains(t, err.Error(), "Calendar not shared with you")

	_, err = f.sharing.ShareWith(ctx, alice, bob.ID)
	require.NoError(t, err)

	owner, err := f.sharing.GetSharedCalendar(ctx, bob, alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, owner.ID)

	// the edge authorizes bob, not alice
	_, err = f.sharing.GetSharedCalendar(ctx, alice, bob.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestListSharedEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	_, err := f.sharing.ShareWith(ctx, alice, bob.ID)
	require.NoError(t, err)

	// shared but empty collapses into the same 404
	_, err = f.sharing.ListSharedEvents(ctx, bob, alice.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	require.Contains(t, err.Error(), "No events found")

	start := time.Now().UTC()
	_, err = f.events.Create(ctx, alice.ID, &CreateEventInput{
		Title:     "Standup",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	events, err := f.sharing.ListSharedEvents(ctx, bob, alice.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, alice.ID, events[0].OwnerID)
}

func TestCreateSharedEventClonesIntoRecipientCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	_, err := f.sharing.ShareWith(ctx, alice, bob.ID)
	require.NoError(t, err)

	start := time.Now().UTC()
	e, err := f.sharing.CreateSharedEvent(ctx, bob, alice.ID, &CreateEventInput{
		Title:     "Copied standup",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	require.NoError(t, err)
	// the copy belongs to bob, never to alice
	require.Equal(t, bob.ID, e.OwnerID)

	_, err = f.events.ListForOwner(ctx, alice.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestCreateSharedEventForbiddenVsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")

	start := time.Now().UTC()
	input := &CreateEventInput{Title: "Nope", StartTime: start, EndTime: start.Add(time.Hour)}

	// owner exists but has not shared: forbidden
	_, err := f.sharing.CreateSharedEvent(ctx, bob, alice.ID, input)
	require.True(t, appErr.IsCode(err, appErr.CodeForbidden))
	require.Contains(t, err.Error(), "Calendar not shared with you")

	// owner does not exist at all: not found
	_, err = f.sharing.CreateSharedEvent(ctx, bob, alice.ID+99, input)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	require.Contains(t, err.Error(), "User not found")
}

func TestDeleteSharedEventGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@x.com")
	bob := f.register(t, "bob", "bob@x.com")
	carol := f.register(t, "carol", "carol@x.com")

	start := time.Now().UTC()
	aliceEvent, err := f.events.Create(ctx, alice.ID, &CreateEventInput{
		Title:     "Standup",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	require.NoError(t, err)
	carolEvent, err := f.events.Create(ctx, carol.ID, &CreateEventInput{
		Title:     "Other",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	require.NoError(t, err)

	// missing owner
	err = f.sharing.DeleteSharedEvent(ctx, bob, carol.ID+99, aliceEvent.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	// owner exists, no edge
	err = f.sharing.DeleteSharedEvent(ctx, bob, alice.ID, aliceEvent.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = f.sharing.ShareWith(ctx, alice, bob.ID)
	require.NoError(t, err)

	// edge exists, but the event belongs to carol, not the sharer
	err = f.sharing.DeleteSharedEvent(ctx, bob, alice.ID, carolEvent.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	// all three gates pass
	require.NoError(t, f.sharing.DeleteSharedEvent(ctx, bob, alice.ID, aliceEvent.ID))
	_, err = f.events.ListForOwner(ctx, alice.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}
