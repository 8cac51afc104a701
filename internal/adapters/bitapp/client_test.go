package bitapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
)

func testAccount() domain.Account {
	return domain.Account{
		ID:             "acct-1",
		Name:           "first",
		UserAgent:      "TestAgent/1.0",
		DevicePlatform: "android",
	}
}

func TestAuthenticateSendsBlobAndRefID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/token", r.URL.Path)
		assert.Equal(t, "TestAgent/1.0", r.Header.Get("User-Agent"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "blob", payload["init_data"])
		assert.Equal(t, "ref_MjI4NjE4Nzk5", payload["ref_id"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "ref_MjI4NjE4Nzk5")

	token, err := client.Authenticate(context.Background(), "blob")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestAuthenticateFailureIsSessionFatal(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")

	_, err := client.Authenticate(context.Background(), "blob")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestProfileCarriesBearerToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"telegram_id": 1234,
			"username":    "tester",
			"clan_id":     7,
			"balance":     500,
			"tickets":     3,
		})
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")
	client.SetToken("tok")

	profile, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), profile.TelegramID)
	assert.Equal(t, "tester", profile.Username)
	require.NotNil(t, profile.ClanID)
	assert.Equal(t, int64(7), *profile.ClanID)
	assert.Equal(t, int64(500), profile.Balance)
	assert.Equal(t, 3, profile.Tickets)
}

func TestSpeedtestParsesNextAvailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"next_available": "2026-03-01T15:04:05Z",
		})
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")

	next, err := client.Speedtest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC), next.UTC())
}

func TestSpeedtestNullMeansEligible(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"next_available": null}`))
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")

	next, err := client.Speedtest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestTaskDecodesAdditionalData(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks/5", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           5,
			"type":         "referrals",
			"title":        "Invite 5 friends",
			"reward":       1000,
			"is_completed": false,
			"additional_data": map[string]any{
				"referrals_count": 5,
				"views":           0,
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")

	task, err := client.Task(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskReferrals, task.Kind)
	assert.Equal(t, 5, task.ReferralsRequired)
	assert.Equal(t, int64(1000), task.Reward)
	assert.False(t, task.Completed)
}

func TestProcessTaskAcceptsAccepted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks/9/process", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")

	assert.NoError(t, client.ProcessTask(context.Background(), 9))
}

func TestCheckInAvailableSendsDeviceHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "android", r.Header.Get("X-Device-Platform"))
		assert.NotEmpty(t, r.Header.Get("X-Device-Model"))
		_, _ = w.Write([]byte(`{"next_available_at": null}`))
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")

	available, err := client.CheckInAvailable(context.Background())
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCheckInAvailableFalseWhenWindowFuture(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"next_available_at": "2026-03-02T00:00:00Z",
		})
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")

	available, err := client.CheckInAvailable(context.Background())
	require.NoError(t, err)
	assert.False(t, available)
}

func TestSubmitMiniGameFormatsTimestamps(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/durov-jump", r.URL.Path)
		assert.Equal(t, "https://bitappprod.com/durov-jump", r.Header.Get("Referer"))

		var payload struct {
			Score   int    `json:"score"`
			StartAt string `json:"start_at"`
			EndAt   string `json:"end_at"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 900, payload.Score)
		assert.Equal(t, "2026-03-01T15:04:05.000Z", payload.StartAt)
		assert.Equal(t, "2026-03-01T15:06:05.123Z", payload.EndAt)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int64{"amount": 42})
	}))
	defer server.Close()

	client := New(server.URL, testAccount(), "")

	start := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	end := time.Date(2026, 3, 1, 15, 6, 5, 123_000_000, time.UTC)

	reward, err := client.SubmitMiniGame(context.Background(), 900, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(42), reward)
}

func TestRebindReplacesTransport(t *testing.T) {
	t.Parallel()

	client := New("https://bitappprod.com/api", testAccount(), "")
	before := client.http

	require.NoError(t, client.Rebind("http://127.0.0.1:8080"))
	assert.NotSame(t, before, client.http)
}
