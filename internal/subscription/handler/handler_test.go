package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"bulletin/internal/platform/metrics"
	"bulletin/internal/platform/middleware"
	"bulletin/internal/subscription/models"
	dErrors "bulletin/pkg/domain-errors"
	"bulletin/pkg/testutil"
)

// fakeService records calls and returns scripted results.
type fakeService struct {
	subscribeErr   error
	confirmErr     error
	listSubs       []*models.Subscriber
	listErr        error
	subscribeCalls []struct{ email, name string }
	confirmCalls   []string
}

func (f *fakeService) Subscribe(ctx context.Context, email, name string) error {
	f.subscribeCalls = append(f.subscribeCalls, struct{ email, name string }{email, name})
	return f.subscribeErr
}

func (f *fakeService) Confirm(ctx context.Context, confirmationToken string) error {
	f.confirmCalls = append(f.confirmCalls, confirmationToken)
	return f.confirmErr
}

func (f *fakeService) List(ctx context.Context) ([]*models.Subscriber, error) {
	return f.listSubs, f.listErr
}

// staticValidator accepts exactly one bearer token.
type staticValidator struct {
	token   string
	subject string
}

func (v *staticValidator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	if tokenString != v.token {
		return nil, errors.New("unknown token")
	}
	return &middleware.JWTClaims{Subject: v.subject}, nil
}

type SubscriptionHandlerSuite struct {
	suite.Suite
}

func TestSubscriptionHandlerSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionHandlerSuite))
}

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, logger, metrics.NewForTesting(), &staticValidator{token: "admin-token", subject: "admin"})
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (s *SubscriptionHandlerSuite) TestSubscribeFormBody() {
	svc := &fakeService{}
	router := newTestRouter(s.T(), svc)

	form := url.Values{}
	form.Set("email", "ursula@example.com")
	form.Set("name", "Ursula K. Le Guin")
	req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Empty(s.T(), w.Body.String())
	require.Len(s.T(), svc.subscribeCalls, 1)
	assert.Equal(s.T(), "ursula@example.com", svc.subscribeCalls[0].email)
	assert.Equal(s.T(), "Ursula K. Le Guin", svc.subscribeCalls[0].name)
}

func (s *SubscriptionHandlerSuite) TestSubscribeJSONBody() {
	svc := &fakeService{}
	router := newTestRouter(s.T(), svc)

	body := `{"email":"ursula@example.com","name":"Ursula"}`
	req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	require.Len(s.T(), svc.subscribeCalls, 1)
}

func (s *SubscriptionHandlerSuite) TestSubscribeMissingFieldIsBadRequest() {
	cases := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"name":"Ursula"}`},
		{name: "missing name", body: `{"email":"ursula@example.com"}`},
		{name: "empty body", body: `{}`},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			svc := &fakeService{}
			router := newTestRouter(s.T(), svc)

			req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/subscribe", tc.body)
			w := testutil.DoRequest(router, req)

			testutil.AssertStatusAndError(s.T(), w, http.StatusBadRequest, "bad_request")
			assert.Empty(s.T(), svc.subscribeCalls, "service must not be called")
		})
	}
}

func (s *SubscriptionHandlerSuite) TestSubscribePresentButInvalidFieldIsUnprocessable() {
	svc := &fakeService{subscribeErr: dErrors.New(dErrors.CodeInvalidInput, "email: not a valid email address")}
	router := newTestRouter(s.T(), svc)

	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/subscribe", `{"email":"not-an-email","name":"Ursula"}`)
	w := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(s.T(), w, http.StatusUnprocessableEntity, "invalid_input")
	resp := testutil.UnmarshalErrorResponse(s.T(), w)
	assert.Equal(s.T(), "email: not a valid email address", resp["message"])
}

func (s *SubscriptionHandlerSuite) TestSubscribeMalformedJSONIsBadRequest() {
	svc := &fakeService{}
	router := newTestRouter(s.T(), svc)

	req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *SubscriptionHandlerSuite) TestSubscribeDispatchFailureIsServerError() {
	svc := &fakeService{subscribeErr: dErrors.New(dErrors.CodeDispatchFailed, "failed to send confirmation email")}
	router := newTestRouter(s.T(), svc)

	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/subscribe", `{"email":"ursula@example.com","name":"Ursula"}`)
	w := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(s.T(), w, http.StatusInternalServerError, "dispatch_failed")
	resp := testutil.UnmarshalErrorResponse(s.T(), w)
	assert.Empty(s.T(), resp["message"], "server errors must not leak detail")
}

func (s *SubscriptionHandlerSuite) TestConfirmSuccess() {
	svc := &fakeService{}
	router := newTestRouter(s.T(), svc)

	req := httptest.NewRequest(http.MethodPost, "/confirm?token=abcdefghijklmnopqrstuvwxy", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Empty(s.T(), w.Body.String())
	require.Len(s.T(), svc.confirmCalls, 1)
	assert.Equal(s.T(), "abcdefghijklmnopqrstuvwxy", svc.confirmCalls[0])
}

func (s *SubscriptionHandlerSuite) TestConfirmMissingTokenIsBadRequest() {
	svc := &fakeService{}
	router := newTestRouter(s.T(), svc)

	req := httptest.NewRequest(http.MethodPost, "/confirm", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Empty(s.T(), svc.confirmCalls, "service must not be called without a token")
}

func (s *SubscriptionHandlerSuite) TestConfirmUnknownTokenIsUnauthorized() {
	svc := &fakeService{confirmErr: dErrors.New(dErrors.CodeUnauthorized, "confirmation token not recognized")}
	router := newTestRouter(s.T(), svc)

	req := httptest.NewRequest(http.MethodPost, "/confirm?token=gibberish", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "unauthorized", resp["error"])
}

func (s *SubscriptionHandlerSuite) TestListSubscriptionsRequiresAuth() {
	svc := &fakeService{}
	router := newTestRouter(s.T(), svc)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *SubscriptionHandlerSuite) TestListSubscriptionsReturnsSubscribers() {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := &fakeService{listSubs: []*models.Subscriber{{
		ID:           models.NewSubscriberID(),
		Email:        "ursula@example.com",
		Name:         "Ursula",
		SubscribedAt: now,
		Status:       models.StatusConfirmed,
	}}}
	router := newTestRouter(s.T(), svc)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(s.T(), http.StatusOK, w.Code)

	var subs []map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &subs))
	require.Len(s.T(), subs, 1)
	assert.Equal(s.T(), "ursula@example.com", subs[0]["email"])
	assert.Equal(s.T(), "confirmed", subs[0]["status"])
}

func (s *SubscriptionHandlerSuite) TestListSubscriptionsEmptyIsJSONArray() {
	svc := &fakeService{}
	router := newTestRouter(s.T(), svc)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.JSONEq(s.T(), "[]", w.Body.String())
}
