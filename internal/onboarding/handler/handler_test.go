package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cockpit/internal/access"
	"cockpit/internal/onboarding/models"
	"cockpit/internal/onboarding/onboardingtest"
	"cockpit/internal/onboarding/service"
	"cockpit/internal/onboarding/store/progress"
	id "cockpit/pkg/domain"
	"cockpit/pkg/platform/sentinel"
	"cockpit/pkg/testutil"
)

type fixture struct {
	router       http.Handler
	store        *progress.InMemory
	userID       id.UserID
	subsidiaryID id.SubsidiaryID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	members := access.NewInMemory()
	f := &fixture{
		store:        progress.NewInMemory(),
		userID:       id.UserID(uuid.New()),
		subsidiaryID: id.SubsidiaryID(uuid.New()),
	}
	require.NoError(t, members.Grant(context.Background(), f.userID, f.subsidiaryID))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(f.store, access.NewResolver(members, logger), service.WithLogger(logger))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	f.router = r
	return f
}

func (f *fixture) path(suffix string) string {
	return "/subsidiaries/" + f.subsidiaryID.String() + "/onboarding" + suffix
}

func (f *fixture) advance(t *testing.T, step models.Step) *http.Response {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, f.path("/steps/"+string(step)),
		map[string]json.RawMessage{"data": onboardingtest.RawPayload(step)})
	return testutil.DoRequest(f.router, testutil.WithUser(req, f.userID)).Result()
}

func TestInitializeAndLoad(t *testing.T) {
	f := newFixture(t)

	testutil.Given(t, "a subsidiary that has not started onboarding", func(t *testing.T) {
		testutil.When(t, "the wizard is loaded", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodGet, f.path(""), nil), f.userID))
			testutil.AssertStatus(t, rr, http.StatusOK)

			resp := testutil.UnmarshalResponse[ProgressResponse](t, rr)
			assert.Equal(t, 1, resp.CurrentStep)
			assert.Equal(t, "gesellschaft", resp.StepName)
			assert.Equal(t, "Gesellschaft", resp.StepDisplayName)
			assert.Equal(t, 14, resp.PercentComplete)
			assert.Len(t, resp.Steps, 7)

			testutil.Then(t, "nothing is persisted", func(t *testing.T) {
				_, err := f.store.FindBySubsidiary(context.Background(), f.subsidiaryID)
				assert.ErrorIs(t, err, sentinel.ErrNotFound)
			})
		})

		testutil.When(t, "onboarding is initialized", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, f.path(""), nil), f.userID))
			testutil.AssertStatus(t, rr, http.StatusCreated)

			testutil.Then(t, "the default record is stored", func(t *testing.T) {
				stored, err := f.store.FindBySubsidiary(context.Background(), f.subsidiaryID)
				require.NoError(t, err)
				assert.Equal(t, 1, stored.CurrentStep)
			})
		})
	})
}

func TestAdvanceThroughWizard(t *testing.T) {
	f := newFixture(t)

	for rank := 1; rank <= models.Total(); rank++ {
		res := f.advance(t, models.NameOf(rank))
		require.Equal(t, http.StatusOK, res.StatusCode, "rank %d", rank)
	}

	rr := testutil.DoRequest(f.router, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodGet, f.path(""), nil), f.userID))
	resp := testutil.UnmarshalResponse[ProgressResponse](t, rr)
	assert.True(t, resp.Completed)
	assert.Equal(t, 7, resp.CurrentStep)
	assert.Equal(t, 100, resp.PercentComplete)
	assert.Len(t, resp.StepData, 7)
	for _, step := range resp.Steps {
		assert.True(t, step.Done, step.Name)
	}
}

func TestAdvanceErrors(t *testing.T) {
	f := newFixture(t)

	t.Run("skipping a step is an invalid transition", func(t *testing.T) {
		res := f.advance(t, models.StepStandorte)
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	})

	t.Run("schema-invalid payload is an invalid transition", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, f.path("/steps/gesellschaft"), `{"data":{"company_name":"Only Name"}}`)
		rr := testutil.DoRequest(f.router, testutil.WithUser(req, f.userID))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "invalid_transition")
	})

	t.Run("missing data is a validation error", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, f.path("/steps/gesellschaft"), `{}`)
		rr := testutil.DoRequest(f.router, testutil.WithUser(req, f.userID))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, f.path("/steps/gesellschaft"), `{`)
		rr := testutil.DoRequest(f.router, testutil.WithUser(req, f.userID))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("rejections leave the store untouched", func(t *testing.T) {
		_, err := f.store.FindBySubsidiary(context.Background(), f.subsidiaryID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestRetreat(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.advance(t, models.StepGesellschaft).StatusCode)
	require.Equal(t, http.StatusOK, f.advance(t, models.StepStandorte).StatusCode)

	rr := testutil.DoRequest(f.router, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, f.path("/retreat"), nil), f.userID))
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[ProgressResponse](t, rr)
	assert.Equal(t, 2, resp.CurrentStep)
	assert.Equal(t, "standorte", resp.StepName)
}

func TestAccessErrors(t *testing.T) {
	f := newFixture(t)

	t.Run("non-member is unauthorized", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, f.path(""), nil)
		rr := testutil.DoRequest(f.router, testutil.WithUser(req, id.UserID(uuid.New())))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("anonymous caller is unauthorized", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodGet, f.path(""), nil))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("malformed subsidiary id is a bad request", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/subsidiaries/not-a-uuid/onboarding", nil)
		rr := testutil.DoRequest(f.router, testutil.WithUser(req, f.userID))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}
