package marketplace

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/middleware"
)

// Handler exposes the registry, ledger and recorder over HTTP. It binds and
// validates input, resolves the actor, and leaves status-code mapping to the
// error handler.
type Handler struct {
	registry *Registry
	ledger   *Ledger
	recorder *Recorder
}

func NewHandler(registry *Registry, ledger *Ledger, recorder *Recorder) *Handler {
	return &Handler{registry: registry, ledger: ledger, recorder: recorder}
}

// Register wires the marketplace routes onto an authenticated group.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/cleanings", h.CreateCleaning)
	g.GET("/cleanings", h.ListCleanings)
	g.GET("/cleanings/:id", h.GetCleaning)
	g.PUT("/cleanings/:id", h.UpdateCleaning)
	g.DELETE("/cleanings/:id", h.DeleteCleaning)

	g.POST("/cleanings/:id/offers", h.CreateOffer)
	g.GET("/cleanings/:id/offers", h.ListOffers)
	g.POST("/cleanings/:id/offers/:user_id/accept", h.AcceptOffer)

	g.POST("/cleanings/:id/evaluations/:cleaner_id", h.CreateEvaluation)
	g.GET("/cleanings/:id/evaluations/:cleaner_id", h.GetEvaluation)
	g.GET("/cleaners/:id/evaluations", h.ListCleanerEvaluations)
	g.GET("/cleaners/:id/evaluations/stats", h.CleanerEvaluationStats)
}

// ===== Cleanings =====

func (h *Handler) CreateCleaning(c echo.Context) error {
	req := new(CreateCleaningRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.ValidationFailed(err.Error())
	}

	cleaning, err := h.registry.Create(c.Request().Context(), middleware.Actor(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cleaning)
}

func (h *Handler) GetCleaning(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.registry.Get(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) ListCleanings(c echo.Context) error {
	views, err := h.registry.List(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"cleanings": views})
}

func (h *Handler) UpdateCleaning(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	patch := new(UpdateCleaningRequest)
	if err := c.Bind(patch); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	cleaning, err := h.registry.Update(c.Request().Context(), middleware.Actor(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cleaning)
}

func (h *Handler) DeleteCleaning(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.registry.Delete(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cleaning deleted"})
}

// ===== Offers =====

func (h *Handler) CreateOffer(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	offer, err := h.ledger.CreateOffer(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, offer)
}

func (h *Handler) ListOffers(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	offers, err := h.ledger.ListOffers(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"offers": offers})
}

func (h *Handler) AcceptOffer(c echo.Context) error {
	cleaningID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	offer, err := h.ledger.AcceptOffer(c.Request().Context(), middleware.Actor(c), cleaningID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, offer)
}

// ===== Evaluations =====

func (h *Handler) CreateEvaluation(c echo.Context) error {
	cleaningID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cleanerID, err := pathID(c, "cleaner_id")
	if err != nil {
		return err
	}

	req := new(CreateEvaluationRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.ValidationFailed(err.Error())
	}

	evaluation, err := h.recorder.Create(c.Request().Context(), middleware.Actor(c), cleaningID, cleanerID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, evaluation)
}

func (h *Handler) GetEvaluation(c echo.Context) error {
	cleaningID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cleanerID, err := pathID(c, "cleaner_id")
	if err != nil {
		return err
	}

	evaluation, err := h.recorder.Get(c.Request().Context(), cleaningID, cleanerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, evaluation)
}

func (h *Handler) ListCleanerEvaluations(c echo.Context) error {
	cleanerID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", defaultEvaluationPageSize)

	result, err := h.recorder.ListForCleaner(c.Request().Context(), cleanerID, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) CleanerEvaluationStats(c echo.Context) error {
	cleanerID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	stats, err := h.recorder.StatsForCleaner(c.Request().Context(), cleanerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// pathID parses a path parameter as a positive integer id. Anything else is
// a validation failure before any lookup happens.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationFailed(name + " must be a positive integer")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, fallback int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
