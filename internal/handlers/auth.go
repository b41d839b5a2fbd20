package handlers

import (
	"net/http"

	lf "lost_and_found"
	"lost_and_found/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "auth_token"
	msgLoggedOut      = "Logged out"
)

// Field presence rules live in the service so the client gets the same
// messages regardless of transport.
type signUpRequest struct {
	Username        string `json:"username" example:"alice"`
	Email           string `json:"email" example:"alice@example.com"`
	Password        string `json:"password" example:"secret1"`
	ConfirmPassword string `json:"confirmPassword" example:"secret1"`
}

type loginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"secret1"`
}

type resendRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		// optional structured logging
		if h.log != nil {
			h.log.Infow("auth_bad_request_body", "path", c.FullPath(), "err", err)
		}
		h.badRequest(c, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, maxAge, "/", "", h.opts.SecureCookie, true)
}

// @Summary      Sign up
// @Description  Creates an unverified account and emails a verification link.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      signUpRequest  true  "account"
// @Success      201    {object}  lost_and_found.SignUpResponse
// @Failure      400    {object}  lost_and_found.ErrorResponse
// @Failure      500    {object}  lost_and_found.ErrorResponse
// @Router       /auth/signup [post]
func (h *Handler) signUp(c *gin.Context) {
	var input signUpRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	res, err := h.services.SignUp(c.Request.Context(), service.SignUpInput{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		h.respondError(c, err, "auth_sign_up_failed", "username", input.Username)
		return
	}

	c.JSON(http.StatusCreated, lf.SignUpResponse{Message: res.Message, Redirect: res.Redirect})
}

// @Summary      Verify email
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "verification token"
// @Success      200    {object}  lost_and_found.VerifyResponse
// @Failure      400    {object}  lost_and_found.ErrorResponse
// @Failure      500    {object}  lost_and_found.ErrorResponse
// @Router       /auth/verify [get]
func (h *Handler) verifyEmail(c *gin.Context) {
	res, err := h.services.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.respondError(c, err, "auth_verify_failed")
		return
	}
	c.JSON(http.StatusOK, lf.VerifyResponse{Message: res.Message, Username: res.Username})
}

// @Summary      Log in
// @Description  Checks credentials and sets the auth_token session cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      loginRequest  true  "credentials"
// @Success      200    {object}  lost_and_found.LoginResponse
// @Failure      400    {object}  lost_and_found.ErrorResponse
// @Failure      401    {object}  lost_and_found.ErrorResponse
// @Failure      500    {object}  lost_and_found.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) signIn(c *gin.Context) {
	var input loginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	res, err := h.services.SignIn(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.respondError(c, err, "auth_sign_in_failed", "username", input.Username)
		return
	}

	h.setSessionCookie(c, res.Token, int(h.opts.SessionTTL.Seconds()))
	c.JSON(http.StatusOK, lf.LoginResponse{Message: service.MsgLoginSuccess, User: res.User})
}

// @Summary      Log out
// @Description  Clears the session cookie. Tokens are stateless and stay valid until expiry.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  lost_and_found.MessageResponse
// @Router       /auth/logout [post]
func (h *Handler) signOut(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, lf.MessageResponse{Message: msgLoggedOut})
}

// @Summary      Resend verification email
// @Description  Always answers with the same message whether or not the email is known.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      resendRequest  true  "email"
// @Success      200    {object}  lost_and_found.MessageResponse
// @Failure      400    {object}  lost_and_found.ErrorResponse
// @Failure      500    {object}  lost_and_found.ErrorResponse
// @Router       /auth/resend-verification [post]
func (h *Handler) resendVerification(c *gin.Context) {
	var input resendRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	if err := h.services.ResendVerification(c.Request.Context(), input.Email); err != nil {
		h.respondError(c, err, "auth_resend_failed")
		return
	}
	c.JSON(http.StatusOK, lf.MessageResponse{Message: service.MsgVerificationSent})
}
