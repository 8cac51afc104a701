package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfarm-bot/bitfarm/internal/config"
	"github.com/bitfarm-bot/bitfarm/internal/domain"
)

func newClanSession(backend *fakeBackend, clanID *int64) *Session {
	settings := config.Settings{ClanName: "MAINE Crypto"}
	session := NewSession(domain.Account{ID: "a"}, settings, SessionDeps{
		Backend: backend,
		Logger:  testLogger(),
	})
	session.clanID = clanID
	return session
}

func TestEnsureClanNoActionWhenAlreadyCorrect(t *testing.T) {
	t.Parallel()

	id := int64(42)
	backend := &fakeBackend{
		clanInfoFn: func(_ context.Context, clanID int64) (domain.Clan, error) {
			assert.Equal(t, id, clanID)
			return domain.Clan{ID: clanID, Name: "MAINE Crypto"}, nil
		},
		leaveClanFn: func(context.Context) error {
			t.Fatal("must not leave the correct clan")
			return nil
		},
		searchClansFn: func(context.Context, string, int, int) ([]domain.Clan, error) {
			t.Fatal("must not search when membership is correct")
			return nil, nil
		},
	}

	session := newClanSession(backend, &id)
	require.NoError(t, session.ensureClan(context.Background()))
}

func TestEnsureClanJoinsWhenInNone(t *testing.T) {
	t.Parallel()

	var joined int64
	backend := &fakeBackend{
		searchClansFn: func(_ context.Context, query string, _, _ int) ([]domain.Clan, error) {
			assert.Equal(t, "MAINE Crypto", query)
			return []domain.Clan{
				{ID: 7, Name: "MAINE Crypt"},
				{ID: 42, Name: "MAINE Crypto"},
			}, nil
		},
		joinClanFn: func(_ context.Context, id int64) error {
			joined = id
			return nil
		},
	}

	session := newClanSession(backend, nil)
	require.NoError(t, session.ensureClan(context.Background()))
	assert.Equal(t, int64(42), joined)
	require.NotNil(t, session.clanID)
	assert.Equal(t, int64(42), *session.clanID)
}

func TestEnsureClanLeavesWrongClanAndRejoins(t *testing.T) {
	t.Parallel()

	id := int64(7)
	left := false
	var joined int64
	backend := &fakeBackend{
		clanInfoFn: func(_ context.Context, clanID int64) (domain.Clan, error) {
			return domain.Clan{ID: clanID, Name: "Other Clan"}, nil
		},
		leaveClanFn: func(context.Context) error {
			left = true
			return nil
		},
		searchClansFn: func(context.Context, string, int, int) ([]domain.Clan, error) {
			return []domain.Clan{{ID: 42, Name: "MAINE Crypto"}}, nil
		},
		joinClanFn: func(_ context.Context, id int64) error {
			joined = id
			return nil
		},
	}

	session := newClanSession(backend, &id)
	require.NoError(t, session.ensureClan(context.Background()))
	assert.True(t, left)
	assert.Equal(t, int64(42), joined)
}

func TestEnsureClanSoftFailsWhenClanMissing(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		searchClansFn: func(context.Context, string, int, int) ([]domain.Clan, error) {
			return []domain.Clan{{ID: 9, Name: "Unrelated"}}, nil
		},
	}

	session := newClanSession(backend, nil)
	require.NoError(t, session.ensureClan(context.Background()))
	assert.Nil(t, session.clanID)
}

func TestEnsureClanDisabledWithoutConfiguredName(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		searchClansFn: func(context.Context, string, int, int) ([]domain.Clan, error) {
			t.Fatal("must not search without a configured clan")
			return nil, nil
		},
	}

	session := NewSession(domain.Account{ID: "a"}, config.Settings{}, SessionDeps{
		Backend: backend,
		Logger:  testLogger(),
	})
	require.NoError(t, session.ensureClan(context.Background()))
}

func TestSessionRunTerminatesOnInvalidSession(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	creds := NewCredentialManager(backend, &staticInitData{err: domain.ErrInvalidSession}, domain.Account{ID: "a"}, nil, testLogger())
	guardian := NewProxyGuardian(&fakePool{}, &inMemoryAccountRepo{}, domain.Account{ID: "a"}, false, testLogger())

	session := NewSession(domain.Account{ID: "a"}, config.Settings{}, SessionDeps{
		Backend:  backend,
		Creds:    creds,
		Guardian: guardian,
		Logger:   testLogger(),
	})

	err := session.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestSessionRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := NewSession(domain.Account{ID: "a"}, config.Settings{}, SessionDeps{
		Backend:  &fakeBackend{},
		Guardian: NewProxyGuardian(&fakePool{}, &inMemoryAccountRepo{}, domain.Account{ID: "a"}, false, testLogger()),
		Logger:   testLogger(),
	})

	err := session.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
