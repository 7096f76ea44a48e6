package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/walker-tournament/middleware"
	"github.com/Dosada05/walker-tournament/services"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type setWinnerInput struct {
	WinnerID uuid.UUID `json:"winner_id"`
}

// SetWinnerHandler godoc
// @Summary      Record a match winner
// @Description  Awards XP, eliminates the loser and advances the winner. The final completes the tournament.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        matchID  path      string          true  "Match ID"
// @Param        input    body      setWinnerInput  true  "Winner member ID"
// @Success      200      {object}  services.SetWinnerResult
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /api/matches/{matchID}/winner [post]
func (h *MatchHandler) SetWinnerHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to set match winner")
		return
	}

	var input setWinnerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerID == uuid.Nil {
		badRequestResponse(w, r, errors.New("winner_id is required"))
		return
	}

	result, err := h.matchService.SetWinner(r.Context(), matchID, input.WinnerID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
