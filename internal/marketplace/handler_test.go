package marketplace

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/auth"
	"github.com/sweeply-app/sweeply/internal/middleware"
	"github.com/sweeply-app/sweeply/internal/users"
	"github.com/sweeply-app/sweeply/internal/validation"
)

const handlerTestSecret = "handler-test-secret"

// newTestServer assembles the full HTTP stack: real auth middleware, real
// validator, real error handler, in-memory store.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	store := newMemStore()
	h := NewHandler(NewRegistry(store), NewLedger(store), NewRecorder(store))

	e := echo.New()
	e.Validator = validation.New()
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler(true)
	g := e.Group("", middleware.RequireAuth(handlerTestSecret))
	h.Register(g)
	return e
}

func bearerFor(t *testing.T, u *users.User) string {
	t.Helper()
	token, err := auth.IssueAccessToken(u, handlerTestSecret, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(e *echo.Echo, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func createCleaningHTTP(t *testing.T, e *echo.Echo, bearer string) int64 {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/cleanings", bearer,
		`{"name": "window wash", "price": 25, "cleaning_type": "spot_clean"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var c Cleaning
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c.ID
}

func TestHandlerRequiresAuth(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/cleanings", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperrors.CodeUnauthorized, decodeErrorCode(t, rec))

	rec = doJSON(e, http.MethodGet, "/cleanings", "Bearer garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerCreateCleaning(t *testing.T) {
	e := newTestServer(t)
	bearer := bearerFor(t, owner)

	rec := doJSON(e, http.MethodPost, "/cleanings", bearer,
		`{"name": "window wash", "price": 25, "cleaning_type": "spot_clean"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var c Cleaning
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, owner.ID, c.Owner)
	assert.Equal(t, SpotClean, c.CleaningType)
}

func TestHandlerCreateCleaningValidation(t *testing.T) {
	e := newTestServer(t)
	bearer := bearerFor(t, owner)

	// Missing required fields.
	rec := doJSON(e, http.MethodPost, "/cleanings", bearer, `{"price": 25}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apperrors.CodeValidationFailed, decodeErrorCode(t, rec))

	// Unknown enum value.
	rec = doJSON(e, http.MethodPost, "/cleanings", bearer,
		`{"name": "x", "price": 25, "cleaning_type": "power_wash"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerUpdateNullVersusUnknownType(t *testing.T) {
	e := newTestServer(t)
	bearer := bearerFor(t, owner)
	id := createCleaningHTTP(t, e, bearer)

	// null for a required field: 400 BAD_REQUEST.
	rec := doJSON(e, http.MethodPut, fmt.Sprintf("/cleanings/%d", id), bearer,
		`{"cleaning_type": null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeBadRequest, decodeErrorCode(t, rec))

	// unrecognized enum string: 422 VALIDATION_FAILED.
	rec = doJSON(e, http.MethodPut, fmt.Sprintf("/cleanings/%d", id), bearer,
		`{"cleaning_type": "power_wash"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apperrors.CodeValidationFailed, decodeErrorCode(t, rec))

	// valid enum value goes through.
	rec = doJSON(e, http.MethodPut, fmt.Sprintf("/cleanings/%d", id), bearer,
		`{"cleaning_type": "dust_up"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerNonIntegerID(t *testing.T) {
	e := newTestServer(t)
	bearer := bearerFor(t, owner)

	for _, path := range []string{"/cleanings/abc", "/cleanings/0", "/cleanings/-1", "/cleanings/1.5"} {
		rec := doJSON(e, http.MethodGet, path, bearer, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
	}
}

func TestHandlerOfferLifecycle(t *testing.T) {
	e := newTestServer(t)
	ownerBearer := bearerFor(t, owner)
	bidderBearer := bearerFor(t, bidder)
	bidder2Bearer := bearerFor(t, bidder2)
	id := createCleaningHTTP(t, e, ownerBearer)

	// Owner cannot bid on their own job.
	rec := doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers", id), ownerBearer, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidAction, decodeErrorCode(t, rec))

	// Two bidders submit.
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers", id), bidderBearer, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers", id), bidder2Bearer, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// A bidder cannot read the offer list.
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/cleanings/%d/offers", id), bidderBearer, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Owner accepts the first bid; sibling flips to rejected.
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers/%d/accept", id, bidder.ID), ownerBearer, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var accepted Offer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, OfferAccepted, accepted.Status)

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/cleanings/%d/offers", id), ownerBearer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Offers []Offer `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Offers, 2)
	for _, o := range listResp.Offers {
		if o.UserID == bidder.ID {
			assert.Equal(t, OfferAccepted, o.Status)
		} else {
			assert.Equal(t, OfferRejected, o.Status)
		}
	}

	// Second accept fails.
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers/%d/accept", id, bidder2.ID), ownerBearer, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidAction, decodeErrorCode(t, rec))
}

func TestHandlerEvaluationFlow(t *testing.T) {
	e := newTestServer(t)
	ownerBearer := bearerFor(t, owner)
	bidderBearer := bearerFor(t, bidder)
	id := createCleaningHTTP(t, e, ownerBearer)

	doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers", id), bidderBearer, "")
	doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers/%d/accept", id, bidder.ID), ownerBearer, "")

	body := `{"professionalism": 5, "completeness": 4, "efficiency": 5, "overall_rating": 5, "headline": "great"}`
	rec := doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/evaluations/%d", id, bidder.ID), ownerBearer, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// A second evaluation for the same pair conflicts.
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/evaluations/%d", id, bidder.ID), ownerBearer, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeAlreadyExists, decodeErrorCode(t, rec))

	// Anyone authenticated can read evaluations and stats.
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/cleanings/%d/evaluations/%d", id, bidder.ID), bidderBearer, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/cleaners/%d/evaluations", bidder.ID), bidderBearer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page EvaluationPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/cleaners/%d/evaluations/stats", bidder.ID), bidderBearer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats EvaluationStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalEvaluations)
	assert.InDelta(t, 5.0, stats.AvgOverallRating, 1e-9)
}

func TestHandlerEvaluationValidation(t *testing.T) {
	e := newTestServer(t)
	ownerBearer := bearerFor(t, owner)
	bidderBearer := bearerFor(t, bidder)
	id := createCleaningHTTP(t, e, ownerBearer)

	doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers", id), bidderBearer, "")
	doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers/%d/accept", id, bidder.ID), ownerBearer, "")

	// Rating out of range.
	rec := doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/evaluations/%d", id, bidder.ID), ownerBearer,
		`{"professionalism": 6, "completeness": 4, "efficiency": 5, "overall_rating": 5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Missing required rating.
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/evaluations/%d", id, bidder.ID), ownerBearer,
		`{"completeness": 4, "efficiency": 5, "overall_rating": 5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// A zero rating is valid, not missing.
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/evaluations/%d", id, bidder.ID), ownerBearer,
		`{"professionalism": 0, "completeness": 0, "efficiency": 0, "overall_rating": 0}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHandlerGetCleaningViews(t *testing.T) {
	e := newTestServer(t)
	ownerBearer := bearerFor(t, owner)
	bidderBearer := bearerFor(t, bidder)
	id := createCleaningHTTP(t, e, ownerBearer)

	doJSON(e, http.MethodPost, fmt.Sprintf("/cleanings/%d/offers", id), bidderBearer, "")

	rec := doJSON(e, http.MethodGet, fmt.Sprintf("/cleanings/%d", id), ownerBearer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ownerView CleaningView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ownerView))
	assert.Equal(t, 1, ownerView.TotalOffers)
	assert.Len(t, ownerView.Offers, 1)

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/cleanings/%d", id), bidderBearer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var bidderView CleaningView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bidderView))
	assert.Equal(t, 1, bidderView.TotalOffers)
	assert.Empty(t, bidderView.Offers)
	// The offers key serializes as [], never null.
	assert.Contains(t, rec.Body.String(), `"offers":[]`)
}

func TestHandlerNotFoundStatuses(t *testing.T) {
	e := newTestServer(t)
	bearer := bearerFor(t, owner)

	rec := doJSON(e, http.MethodGet, "/cleanings/999", bearer, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.CodeNotFound, decodeErrorCode(t, rec))

	rec = doJSON(e, http.MethodDelete, "/cleanings/999", bearer, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
