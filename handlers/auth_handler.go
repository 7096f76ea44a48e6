package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/walker-tournament/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary  Exchange organizer credentials for a bearer token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    input  body      services.LoginInput  true  "Credentials"
// @Success  200    {object}  services.LoginResult
// @Failure  400    {object}  map[string]string
// @Failure  401    {object}  map[string]string
// @Router   /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput

	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, result, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
