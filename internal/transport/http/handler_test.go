package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coppice/internal/fla/models"
	"coppice/internal/fla/service"
	"coppice/internal/publicregister"
	id "coppice/pkg/domain"
	"coppice/pkg/requestcontext"
	"coppice/pkg/testutil"
)

// stubDecisions returns canned results and records what the transport
// passed down.
type stubDecisions struct {
	result service.Result
	err    error

	lastDecision service.FinaliseDecisionRequest
	lastReturn   service.ReturnToReviewRequest
	lastActor    id.UserID
}

func (s *stubDecisions) capture(ctx context.Context) {
	s.lastActor = requestcontext.UserID(ctx)
}

func (s *stubDecisions) FinaliseDecision(ctx context.Context, req service.FinaliseDecisionRequest) (service.Result, error) {
	s.capture(ctx)
	s.lastDecision = req
	return s.result, s.err
}

func (s *stubDecisions) ReturnToReview(ctx context.Context, req service.ReturnToReviewRequest) (service.Result, error) {
	s.capture(ctx)
	s.lastReturn = req
	return s.result, s.err
}

func (s *stubDecisions) RevertFromWithdrawn(ctx context.Context, _ id.ApplicationID) (service.Result, error) {
	s.capture(ctx)
	return s.result, s.err
}

func (s *stubDecisions) MarkApprovedInError(ctx context.Context, _ id.ApplicationID, _ string) (service.Result, error) {
	s.capture(ctx)
	return s.result, s.err
}

type stubComments struct {
	comments []publicregister.CaseComment
	err      error
}

func (s *stubComments) Get(context.Context, string) ([]publicregister.CaseComment, error) {
	return s.comments, s.err
}

func newTestHandler(decisions *stubDecisions, comments *stubComments) http.Handler {
	return New(decisions, comments, nil, nil, slog.Default()).Router()
}

func TestHandleDecision(t *testing.T) {
	appID := id.NewApplicationID()
	actor := id.NewUserID()

	t.Run("success carries the sub-process outcomes", func(t *testing.T) {
		decisions := &stubDecisions{result: service.Result{
			IsSuccess:          true,
			SubProcessOutcomes: []service.SubProcessOutcome{service.OutcomeCouldNotSendNotificationToApplicant},
			RegisterOutcome:    publicregister.OutcomeSuccess,
		}}
		router := newTestHandler(decisions, &stubComments{})

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/applications/"+appID.String()+"/decision",
			DecisionRequest{RequestedStatus: "Approved", Reason: "compartment survey complete"})
		req.Header.Set("X-Acting-User-Id", actor.String())
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[ResultResponse](t, rr)
		assert.True(t, resp.Success)
		assert.Equal(t, []string{"CouldNotSendNotificationToApplicant"}, resp.SubProcessOutcomes)
		assert.Equal(t, "Success", resp.RegisterOutcome)

		assert.Equal(t, appID, decisions.lastDecision.ApplicationID)
		assert.Equal(t, models.StatusApproved, decisions.lastDecision.RequestedStatus)
		assert.Equal(t, actor, decisions.lastActor)
	})

	t.Run("pre-condition failures map to definitive codes", func(t *testing.T) {
		cases := []struct {
			reason service.FailureReason
			status int
		}{
			{service.FailureCouldNotRetrieveApplication, http.StatusNotFound},
			{service.FailureUserRoleNotAuthorised, http.StatusForbidden},
			{service.FailureIncorrectApplicationState, http.StatusConflict},
			{service.FailureIncorrectStatusRequested, http.StatusConflict},
		}
		for _, tc := range cases {
			decisions := &stubDecisions{result: service.Result{FailureReason: tc.reason}}
			router := newTestHandler(decisions, &stubComments{})

			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/applications/"+appID.String()+"/decision",
				DecisionRequest{RequestedStatus: "Approved"})
			rr := testutil.DoRequest(router, req)

			testutil.AssertStatus(t, rr, tc.status)
			resp := testutil.UnmarshalResponse[ResultResponse](t, rr)
			assert.False(t, resp.Success)
			assert.Equal(t, string(tc.reason), resp.FailureReason)
		}
	})

	t.Run("a malformed application id never reaches the service", func(t *testing.T) {
		decisions := &stubDecisions{}
		router := newTestHandler(decisions, &stubComments{})

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/applications/not-a-uuid/decision",
			DecisionRequest{RequestedStatus: "Approved"})
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, "invalid_input")
		assert.Equal(t, id.ApplicationID{}, decisions.lastDecision.ApplicationID)
	})

	t.Run("a malformed body is a bad request", func(t *testing.T) {
		router := newTestHandler(&stubDecisions{}, &stubComments{})

		req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/v1/applications/"+appID.String()+"/decision", "{not json")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, "bad_request")
	})
}

func TestHandleReturn(t *testing.T) {
	appID := id.NewApplicationID()
	decisions := &stubDecisions{result: service.Result{IsSuccess: true}}
	router := newTestHandler(decisions, &stubComments{})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/applications/"+appID.String()+"/return",
		ReturnRequest{CaseNote: "felling map does not match the compartment boundary"})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, appID, decisions.lastReturn.ApplicationID)
	assert.Equal(t, "felling map does not match the compartment boundary", decisions.lastReturn.CaseNote)
}

func TestHandleComments(t *testing.T) {
	t.Run("comments are returned as-is", func(t *testing.T) {
		comments := &stubComments{comments: []publicregister.CaseComment{
			{CaseReference: "FLA/2026/0042", Author: "Parish Council", Text: "object to clear felling", CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		}}
		router := newTestHandler(&stubDecisions{}, comments)

		req := testutil.NewRequest(t, http.MethodGet, "/api/v1/register/FLA-2026-0042/comments")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[[]publicregister.CaseComment](t, rr)
		require.Len(t, *got, 1)
		assert.Equal(t, "Parish Council", (*got)[0].Author)
	})

	t.Run("a gateway failure surfaces as an internal error", func(t *testing.T) {
		router := newTestHandler(&stubDecisions{}, &stubComments{err: errors.New("bridge down")})

		req := testutil.NewRequest(t, http.MethodGet, "/api/v1/register/FLA-2026-0042/comments")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	})
}

func TestHandleReconcile_UnknownJob(t *testing.T) {
	router := newTestHandler(&stubDecisions{}, &stubComments{})

	req := testutil.NewRequest(t, http.MethodPost, "/internal/reconcile/no-such-job")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
