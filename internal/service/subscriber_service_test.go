package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriberService_SubscribeTwiceConflicts(t *testing.T) {
	svc := NewSubscriberService(setupServiceTestDB(t))

	sub, err := svc.Subscribe("  Reader@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", sub.Email)
	assert.True(t, sub.Active)

	_, err = svc.Subscribe("reader@example.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.ErrorIs(t, err, ErrConflict)

	active, err := svc.ListActive()
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestSubscriberService_UnsubscribeAndReactivate(t *testing.T) {
	svc := NewSubscriberService(setupServiceTestDB(t))

	first, err := svc.Subscribe("reader@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe("READER@example.com"))
	require.NoError(t, svc.Unsubscribe("reader@example.com"))

	active, err := svc.ListActive()
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)

	again, err := svc.Subscribe("reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.Active)

	count, err := svc.ActiveCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSubscriberService_Errors(t *testing.T) {
	svc := NewSubscriberService(setupServiceTestDB(t))

	assert.ErrorIs(t, svc.Unsubscribe("nobody@example.com"), ErrSubscriberNotFound)
	assert.ErrorIs(t, svc.Unsubscribe("nobody"), ErrSubscriberNotFound)
	assert.ErrorIs(t, svc.Unsubscribe("  "), ErrValidation)

	for _, email := range []string{"", "plainaddress", "Name <name@example.com>", "@example.com"} {
		_, err := svc.Subscribe(email)
		assert.ErrorIs(t, err, ErrValidation, "email %q", email)
	}
}
