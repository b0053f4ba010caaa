package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"snelos/events"
	"snelos/models"
	"snelos/service"
)

const testJWTSecret = "test-secret-key"

func TestMain(m *testing.M) {
	os.Setenv("ENVIRONMENT", "test")
	os.Setenv("ADMIN_USER_IDS", "admin-1")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// Mock services

type mockAccountService struct{ mock.Mock }

func (m *mockAccountService) GetOrCreateAccount(ctx context.Context, accountID string) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) GetProfile(ctx context.Context, accountID string) (*service.Profile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Profile), args.Error(1)
}

type mockLedgerService struct{ mock.Mock }

func (m *mockLedgerService) Debit(ctx context.Context, accountID string, amountCents int64, reason models.CreditReason, meta map[string]any) error {
	args := m.Called(ctx, accountID, amountCents, reason, meta)
	return args.Error(0)
}

func (m *mockLedgerService) Credit(ctx context.Context, accountID string, amountCents int64, reason models.CreditReason, meta map[string]any) error {
	args := m.Called(ctx, accountID, amountCents, reason, meta)
	return args.Error(0)
}

func (m *mockLedgerService) CheckDailyFreeStatus(ctx context.Context, accountID string) (models.DailyFreeStatus, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(models.DailyFreeStatus), args.Error(1)
}

func (m *mockLedgerService) UseDailyFree(ctx context.Context, accountID string, kind models.FreeActionKind) error {
	args := m.Called(ctx, accountID, kind)
	return args.Error(0)
}

func (m *mockLedgerService) GetBalance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedgerService) GetHistory(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

type mockTreasuryService struct{ mock.Mock }

func (m *mockTreasuryService) GetSummary(ctx context.Context) (*models.Treasury, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Treasury), args.Error(1)
}

func (m *mockTreasuryService) RegisterSubscriptions(bus *events.Bus) {}

type mockPostService struct{ mock.Mock }

func (m *mockPostService) CreatePost(ctx context.Context, accountID, imageURL string, promptTag *string) (*models.Post, error) {
	args := m.Called(ctx, accountID, imageURL, promptTag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *mockPostService) LikePost(ctx context.Context, accountID, postID string) error {
	args := m.Called(ctx, accountID, postID)
	return args.Error(0)
}

func (m *mockPostService) GetFeed(ctx context.Context, viewerID string, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, viewerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *mockPostService) NextPostTime(ctx context.Context, accountID string) (*time.Time, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

type mockSearchService struct{ mock.Mock }

func (m *mockSearchService) Reroll(ctx context.Context, accountID string) (*service.RerollResult, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RerollResult), args.Error(1)
}

func (m *mockSearchService) Status(ctx context.Context, accountID string) (*service.RerollResult, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RerollResult), args.Error(1)
}

type mockTaskService struct{ mock.Mock }

func (m *mockTaskService) GetTodaysTasks(ctx context.Context, accountID string) ([]*models.DailyTask, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailyTask), args.Error(1)
}

func (m *mockTaskService) CompleteTask(ctx context.Context, accountID, taskID string) (*models.DailyTask, error) {
	args := m.Called(ctx, accountID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyTask), args.Error(1)
}

type testServer struct {
	router   *gin.Engine
	accounts *mockAccountService
	ledger   *mockLedgerService
	treasury *mockTreasuryService
	posts    *mockPostService
	search   *mockSearchService
	tasks    *mockTaskService
}

func newTestServer() *testServer {
	ts := &testServer{
		accounts: new(mockAccountService),
		ledger:   new(mockLedgerService),
		treasury: new(mockTreasuryService),
		posts:    new(mockPostService),
		search:   new(mockSearchService),
		tasks:    new(mockTaskService),
	}

	router := gin.New()
	handler := NewHandler(ts.accounts, ts.ledger, ts.treasury, ts.posts, ts.search, ts.tasks)
	handler.SetupRoutes(router, []byte(testJWTSecret))

	ts.router = router
	return ts
}

func signToken(t *testing.T, accountID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": accountID,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func performRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	ts := newTestServer()

	t.Run("missing token", func(t *testing.T) {
		w := performRequest(ts.router, http.MethodGet, "/api/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
		signed, err := token.SignedString([]byte("wrong-secret"))
		require.NoError(t, err)

		w := performRequest(ts.router, http.MethodGet, "/api/me", signed, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("healthz is public", func(t *testing.T) {
		w := performRequest(ts.router, http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetMe(t *testing.T) {
	ts := newTestServer()
	token := signToken(t, "user-1")

	profile := &service.Profile{
		AccountID:           "user-1",
		CreditsBalanceCents: 55,
		DailyFreeStatus:     models.DailyFreeStatus{FreeImageAvailable: true, FreeLikeAvailable: false},
		CanReroll:           true,
	}

	ts.accounts.On("GetOrCreateAccount", mock.Anything, "user-1").
		Return(&models.Account{ID: "user-1", BalanceCents: 55}, nil)
	ts.accounts.On("GetProfile", mock.Anything, "user-1").Return(profile, nil)

	w := performRequest(ts.router, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "user-1", got["id"])
	assert.Equal(t, float64(55), got["creditsBalanceCents"])
	assert.Equal(t, true, got["canReroll"])

	ts.accounts.AssertExpectations(t)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"account not found", models.ErrAccountNotFound, http.StatusNotFound, "User not found"},
		{"post not found", models.ErrPostNotFound, http.StatusNotFound, "Post not found"},
		{"insufficient credits", models.ErrInsufficientFunds, http.StatusBadRequest, "Insufficient credits"},
		{"already liked", models.ErrAlreadyLiked, http.StatusBadRequest, "Post already liked"},
		{"self like", models.ErrSelfLike, http.StatusBadRequest, "Cannot like your own post"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer()
			token := signToken(t, "fan")

			ts.posts.On("LikePost", mock.Anything, "fan", "post-1").Return(tc.err)

			w := performRequest(ts.router, http.MethodPost, "/api/posts/post-1/like", token, nil)
			assert.Equal(t, tc.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantError, body["error"])
		})
	}
}

func TestCreatePost(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ts := newTestServer()
		token := signToken(t, "user-1")

		post := &models.Post{ID: "post-1", AccountID: "user-1", ImageURL: "https://cdn.example.com/a.png"}
		ts.posts.On("CreatePost", mock.Anything, "user-1", "https://cdn.example.com/a.png", (*string)(nil)).
			Return(post, nil)

		w := performRequest(ts.router, http.MethodPost, "/api/posts", token,
			map[string]string{"imageUrl": "https://cdn.example.com/a.png"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing image url", func(t *testing.T) {
		ts := newTestServer()
		token := signToken(t, "user-1")

		w := performRequest(ts.router, http.MethodPost, "/api/posts", token, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		ts.posts.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("daily limit", func(t *testing.T) {
		ts := newTestServer()
		token := signToken(t, "user-1")

		ts.posts.On("CreatePost", mock.Anything, "user-1", mock.Anything, mock.Anything).
			Return(nil, models.ErrDailyPostLimit)

		w := performRequest(ts.router, http.MethodPost, "/api/posts", token,
			map[string]string{"imageUrl": "https://cdn.example.com/a.png"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetTreasury(t *testing.T) {
	ts := newTestServer()

	ts.treasury.On("GetSummary", mock.Anything).Return(&models.Treasury{
		ID:           models.TreasuryID,
		TotalCredits: 500,
		TotalUsers:   10,
		TotalPosts:   25,
	}, nil)

	// Treasury is readable without a token
	w := performRequest(ts.router, http.MethodGet, "/api/treasury", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Treasury
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(500), got.TotalCredits)
}

func TestCompleteTask(t *testing.T) {
	ts := newTestServer()
	token := signToken(t, "user-1")

	t.Run("unknown task", func(t *testing.T) {
		ts.tasks.On("CompleteTask", mock.Anything, "user-1", "bogus").
			Return(nil, models.ErrTaskNotFound)

		w := performRequest(ts.router, http.MethodPost, "/api/tasks/bogus/complete", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("completed", func(t *testing.T) {
		task := &models.DailyTask{ID: "2025-06-01-explorer", Title: "Explorer", Completed: true}
		ts.tasks.On("CompleteTask", mock.Anything, "user-1", "2025-06-01-explorer").
			Return(task, nil)

		w := performRequest(ts.router, http.MethodPost, "/api/tasks/2025-06-01-explorer/complete", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
	})
}

func TestAdminCredits(t *testing.T) {
	t.Run("non-admin rejected", func(t *testing.T) {
		ts := newTestServer()
		token := signToken(t, "user-1")

		w := performRequest(ts.router, http.MethodPost, "/api/admin/credits", token,
			map[string]any{"accountId": "user-2", "deltaCents": 100})
		assert.Equal(t, http.StatusForbidden, w.Code)
		ts.ledger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin grant", func(t *testing.T) {
		ts := newTestServer()
		token := signToken(t, "admin-1")

		ts.ledger.On("Credit", mock.Anything, "user-2", int64(100), models.CreditReasonAdminAdjustment,
			mock.MatchedBy(func(meta map[string]any) bool {
				return meta["admin_id"] == "admin-1" && meta["note"] == "bonus"
			})).Return(nil)
		ts.ledger.On("GetBalance", mock.Anything, "user-2").Return(int64(100), nil)

		w := performRequest(ts.router, http.MethodPost, "/api/admin/credits", token,
			map[string]any{"accountId": "user-2", "deltaCents": 100, "note": "bonus"})
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(100), body["balanceCents"])
		ts.ledger.AssertExpectations(t)
	})

	t.Run("admin deduction", func(t *testing.T) {
		ts := newTestServer()
		token := signToken(t, "admin-1")

		ts.ledger.On("Debit", mock.Anything, "user-2", int64(40), models.CreditReasonAdminAdjustment, mock.Anything).
			Return(nil)
		ts.ledger.On("GetBalance", mock.Anything, "user-2").Return(int64(60), nil)

		w := performRequest(ts.router, http.MethodPost, "/api/admin/credits", token,
			map[string]any{"accountId": "user-2", "deltaCents": -40})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSearchRoutes(t *testing.T) {
	ts := newTestServer()
	token := signToken(t, "user-1")

	next := time.Now().Add(10 * time.Minute)
	ts.search.On("Reroll", mock.Anything, "user-1").
		Return(&service.RerollResult{CanReroll: false, NextRerollAt: &next}, nil)

	w := performRequest(ts.router, http.MethodPost, "/api/search/reroll", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["canReroll"])

	ts.search.On("Status", mock.Anything, "user-1").
		Return(&service.RerollResult{CanReroll: true}, nil)

	w = performRequest(ts.router, http.MethodGet, "/api/search/status", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetFeedQueryParams(t *testing.T) {
	ts := newTestServer()
	token := signToken(t, "viewer")

	ts.posts.On("GetFeed", mock.Anything, "viewer", 5, 10).Return([]*models.Post{}, nil)

	w := performRequest(ts.router, http.MethodGet, "/api/posts?limit=5&offset=10", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	ts.posts.AssertExpectations(t)
}
