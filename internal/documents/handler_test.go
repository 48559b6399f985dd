package documents

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cockpit/internal/access"
	id "cockpit/pkg/domain"
	"cockpit/pkg/testutil"
)

func TestHandler(t *testing.T) {
	userID := id.UserID(uuid.New())
	subsidiaryID := id.SubsidiaryID(uuid.New())
	members := access.NewInMemory()
	require.NoError(t, members.Grant(context.Background(), userID, subsidiaryID))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService("cockpit-docs", time.Minute, &fakePresigner{}, &fakeObjects{}, access.NewResolver(members, logger))
	r := chi.NewRouter()
	NewHandler(svc, logger).Register(r)
	base := "/subsidiaries/" + subsidiaryID.String() + "/givve/documents/"

	t.Run("upload url", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, base+"order_form/upload-url", nil)
		rr := testutil.DoRequest(r, testutil.WithUser(req, userID))
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[SignedURLResponse](t, rr)
		assert.Equal(t, http.MethodPut, resp.Method)
		assert.Equal(t, ObjectKey(subsidiaryID, KindOrderForm), resp.Key)
	})

	t.Run("download url", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, base+"identity_document", nil)
		rr := testutil.DoRequest(r, testutil.WithUser(req, userID))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("unknown kind", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, base+"passport", nil)
		rr := testutil.DoRequest(r, testutil.WithUser(req, userID))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("missing template", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/givve/templates/bestellformular/fields", nil)
		rr := testutil.DoRequest(r, testutil.WithUser(req, userID))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}
