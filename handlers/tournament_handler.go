package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/walker-tournament/middleware"
	"github.com/Dosada05/walker-tournament/models"
	"github.com/Dosada05/walker-tournament/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Ограничения входных данных на границе API.
const (
	maxNameLength        = 200
	maxDescriptionLength = 1000
	maxImageURLLength    = 500
	maxWalkerNameLength  = 100
	maxXPPerWin          = 10000
	maxParticipantsLimit = 1000
	maxImageUploadBytes  = 10 << 20
)

type TournamentHandler struct {
	tournamentService *services.TournamentService
}

func NewTournamentHandler(ts *services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

func validateCreateTournament(v *validator, input services.CreateTournamentInput) {
	v.check(lengthBetween(input.Name, 1, maxNameLength), "name", fmt.Sprintf("must be 1 to %d characters", maxNameLength))
	if input.Description != nil {
		v.check(lengthBetween(*input.Description, 0, maxDescriptionLength), "description", fmt.Sprintf("must be at most %d characters", maxDescriptionLength))
	}
	v.check(!input.JoinDeadline.IsZero(), "join_deadline", "is required")
	v.check(input.XPPerWin >= 1 && input.XPPerWin <= maxXPPerWin, "xp_per_win", fmt.Sprintf("must be between 1 and %d", maxXPPerWin))
	v.check(input.MaxParticipants >= 2 && input.MaxParticipants <= maxParticipantsLimit, "max_participants", fmt.Sprintf("must be between 2 and %d", maxParticipantsLimit))
	if input.ImageURL != nil {
		v.check(len(*input.ImageURL) <= maxImageURLLength, "image_url", fmt.Sprintf("must be at most %d characters", maxImageURLLength))
	}
}

// CreateHandler godoc
// @Summary      Create a tournament
// @Description  Creates a tournament in draft status.
// @Tags         tournaments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input  body      services.CreateTournamentInput  true  "Tournament"
// @Success      201    {object}  map[string]models.Tournament
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      422    {object}  map[string]map[string]string
// @Router       /api/tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	v := newValidator()
	if validateCreateTournament(v, input); !v.valid() {
		failedValidationResponse(w, r, v.errors)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary  List tournaments, newest first
// @Tags     tournaments
// @Produce  json
// @Param    status  query     string  false  "Filter by status"  Enums(draft, open, locked, in_progress, completed)
// @Success  200     {object}  map[string][]models.Tournament
// @Failure  400     {object}  map[string]string
// @Router   /api/tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		s := models.TournamentStatus(statusStr)
		if !s.IsValid() {
			badRequestResponse(w, r, fmt.Errorf("invalid status query parameter: %q", statusStr))
			return
		}
		status = &s
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary  Get a tournament with its members and matches
// @Tags     tournaments
// @Produce  json
// @Param    tournamentID  path      string  true  "Tournament ID"
// @Success  200           {object}  map[string]models.Tournament
// @Failure  404           {object}  map[string]string
// @Router   /api/tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// runTransition обслуживает переходы статуса без тела запроса.
func (h *TournamentHandler) runTransition(w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, id, actor uuid.UUID) (*models.Tournament, error)) {
	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tournament, err := transition(r.Context(), id, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// OpenHandler godoc
// @Summary   Open registration (draft to open)
// @Tags      tournaments
// @Produce   json
// @Security  BearerAuth
// @Param     tournamentID  path      string  true  "Tournament ID"
// @Success   200           {object}  map[string]models.Tournament
// @Failure   400           {object}  map[string]string
// @Failure   404           {object}  map[string]string
// @Failure   409           {object}  map[string]string
// @Router    /api/tournaments/{tournamentID}/open [post]
func (h *TournamentHandler) OpenHandler(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.tournamentService.OpenTournament)
}

// LockHandler godoc
// @Summary   Close registration (open to locked)
// @Tags      tournaments
// @Produce   json
// @Security  BearerAuth
// @Param     tournamentID  path      string  true  "Tournament ID"
// @Success   200           {object}  map[string]models.Tournament
// @Failure   400           {object}  map[string]string
// @Failure   404           {object}  map[string]string
// @Router    /api/tournaments/{tournamentID}/lock [post]
func (h *TournamentHandler) LockHandler(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.tournamentService.LockTournament)
}

// DrawHandler godoc
// @Summary      Draw the bracket
// @Description  Generates every match and starts the tournament. Allowed from locked, or from open when full.
// @Tags         tournaments
// @Produce      json
// @Security     BearerAuth
// @Param        tournamentID  path      string  true  "Tournament ID"
// @Success      200           {object}  map[string]models.Tournament
// @Failure      400           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Router       /api/tournaments/{tournamentID}/draw [post]
func (h *TournamentHandler) DrawHandler(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.tournamentService.Draw)
}

type extendDeadlineInput struct {
	JoinDeadline time.Time `json:"join_deadline"`
}

// ExtendDeadlineHandler godoc
// @Summary   Move the join deadline later
// @Tags      tournaments
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     tournamentID  path      string               true  "Tournament ID"
// @Param     input         body      extendDeadlineInput  true  "New deadline"
// @Success   200           {object}  map[string]models.Tournament
// @Failure   400           {object}  map[string]string
// @Failure   404           {object}  map[string]string
// @Router    /api/tournaments/{tournamentID}/extend [post]
func (h *TournamentHandler) ExtendDeadlineHandler(w http.ResponseWriter, r *http.Request) {
	var input extendDeadlineInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.JoinDeadline.IsZero() {
		failedValidationResponse(w, r, map[string]string{"join_deadline": "is required"})
		return
	}

	h.runTransition(w, r, func(ctx context.Context, id, actor uuid.UUID) (*models.Tournament, error) {
		return h.tournamentService.ExtendDeadline(ctx, id, input.JoinDeadline, actor)
	})
}

// JoinHandler godoc
// @Summary      Register a walker
// @Description  Anonymous registration while the tournament is open and before its deadline.
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        tournamentID  path      string                        true  "Tournament ID"
// @Param        input         body      services.JoinTournamentInput  true  "Walker"
// @Success      201           {object}  map[string]models.Member
// @Failure      400           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Failure      422           {object}  map[string]map[string]string
// @Router       /api/tournaments/{tournamentID}/join [post]
func (h *TournamentHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.JoinTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	v := newValidator()
	v.check(input.WalkerID > 0, "walker_id", "must be a positive integer")
	v.check(lengthBetween(input.WalkerName, 1, maxWalkerNameLength), "walker_name", fmt.Sprintf("must be 1 to %d characters", maxWalkerNameLength))
	v.check(isEmail(input.Email), "email", "must be a valid email address")
	if !v.valid() {
		failedValidationResponse(w, r, v.errors)
		return
	}

	member, err := h.tournamentService.Join(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"member": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveMemberHandler godoc
// @Summary   Remove a registered walker before the draw
// @Tags      members
// @Produce   json
// @Security  BearerAuth
// @Param     tournamentID  path      string   true  "Tournament ID"
// @Param     walkerID      path      integer  true  "Walker ID"
// @Success   200           {object}  map[string]string
// @Failure   400           {object}  map[string]string
// @Failure   404           {object}  map[string]string
// @Router    /api/tournaments/{tournamentID}/members/{walkerID} [delete]
func (h *TournamentHandler) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	walkerIDStr := chi.URLParam(r, "walkerID")
	walkerID, err := strconv.Atoi(walkerIDStr)
	if err != nil || walkerID <= 0 {
		badRequestResponse(w, r, fmt.Errorf("invalid walkerID format: %q", walkerIDStr))
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.tournamentService.RemoveMember(r.Context(), id, walkerID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "member removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadImageHandler godoc
// @Summary   Upload the tournament image
// @Tags      tournaments
// @Accept    multipart/form-data
// @Produce   json
// @Security  BearerAuth
// @Param     tournamentID  path      string  true  "Tournament ID"
// @Param     image         formData  file    true  "Image file"
// @Success   200           {object}  map[string]models.Tournament
// @Failure   400           {object}  map[string]string
// @Failure   404           {object}  map[string]string
// @Failure   503           {object}  map[string]string
// @Router    /api/tournaments/{tournamentID}/image [post]
func (h *TournamentHandler) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to upload tournament image")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadBytes)
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get image file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for image"))
		return
	}

	tournament, err := h.tournamentService.UploadImage(r.Context(), id, contentType, file, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
