// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
HTTP delivery layer for user identity management.

It implements the gateway for the authentication lifecycle, from account
creation to session issuance and password recovery.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Handles JWT orchestration and the x-refresh header contract.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/middleware"
	"github.com/taibuivan/sentra/internal/platform/request"
	"github.com/taibuivan/sentra/internal/platform/respond"
	"github.com/taibuivan/sentra/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the user lifecycle entry points
// (Registration, Verification, Login, Password Recovery, Token Refresh).
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// UserRoutes returns a [chi.Router] with the account lifecycle endpoints.
//
// # Endpoints
//   - POST /                                      : Creates a new account.
//   - POST /verify/{id}/{verificationCode}        : Confirms email ownership.
//   - POST /forgotpassword                        : Starts password recovery.
//   - POST /resetpassword/{id}/{passwordResetCode}: Completes password recovery.
//   - GET  /me                                    : Returns the caller's identity.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/", handler.register)
	router.Post("/verify/{id}/{verificationCode}", handler.verifyUser)
	router.Post("/forgotpassword", handler.forgotPassword)
	router.Post("/resetpassword/{id}/{passwordResetCode}", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/me", handler.currentUser)
	})

	return router
}

// SessionRoutes returns a [chi.Router] with the session endpoints.
//
// # Endpoints
//   - POST /        : Authenticates and issues an access/refresh token pair.
//   - POST /refresh : Exchanges a refresh token for a new access token.
func (handler *Handler) SessionRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.login)
	router.Post("/refresh", handler.refresh)

	return router
}

// # Request Payloads

type registerRequest struct {
	Email                string `json:"email"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

/*
Register handles the creation of a new user account.

POST /api/users

Description: Validates input, persists a new unverified account, and
dispatches the verification email.

Request:
  - Body: registerRequest (Email, FirstName, LastName, Password, PasswordConfirmation)

Response:
  - 201: Message: "User successfully created"
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, httpRequest *http.Request) {
	var input registerRequest

	if err := request.DecodeJSON(httpRequest, &input); err != nil {
		respond.Error(writer, httpRequest, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldFirstName, input.FirstName).
		Required(FieldLastName, input.LastName).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Equal(FieldPasswordConfirmation, input.PasswordConfirmation, input.Password, "Passwords do not match")

	if err := validator.Err(); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	message, err := handler.authService.Register(httpRequest.Context(), RegisterInput{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
	})
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	respond.Created(writer, respond.MessageEnvelope{Message: message})
}

/*
VerifyUser confirms a user's email ownership.

POST /api/users/verify/{id}/{verificationCode}

Description: Matches the supplied verification code against the account and
marks it verified.

Response:
  - 200: Message: "User successfully verified" (or already-verified notice)
  - 400: ErrValidation: Unknown account or wrong code (opaque)
*/
func (handler *Handler) verifyUser(writer http.ResponseWriter, httpRequest *http.Request) {
	id := request.Param(httpRequest, "id")
	verificationCode := request.Param(httpRequest, "verificationCode")

	message, err := handler.authService.VerifyUser(httpRequest.Context(), id, verificationCode)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	respond.Message(writer, message)
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/users/forgotpassword

Description: Dispatches a reset code to the given email if a verified account
exists. The response is identical for registered and unknown emails.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Message: Generic "you will receive a password reset email" notice
  - 400: ErrInvalidJSON: Invalid email format
  - 403: ErrForbidden: Account exists but is not verified
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, httpRequest *http.Request) {
	var input forgotPasswordRequest

	if err := request.DecodeJSON(httpRequest, &input); err != nil {
		respond.Error(writer, httpRequest, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	message, err := handler.authService.ForgotPassword(httpRequest.Context(), input.Email)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	respond.Message(writer, message)
}

/*
ResetPassword completes the password recovery flow.

POST /api/users/resetpassword/{id}/{passwordResetCode}

Description: Validates the reset code and updates the user's password.

Request:
  - Body: resetPasswordRequest (Password, PasswordConfirmation)

Response:
  - 200: Message: "Successfully updated user password"
  - 400: ErrValidation: Bad code, unknown account, or weak password (opaque)
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, httpRequest *http.Request) {
	id := request.Param(httpRequest, "id")
	passwordResetCode := request.Param(httpRequest, "passwordResetCode")

	var input resetPasswordRequest
	if err := request.DecodeJSON(httpRequest, &input); err != nil {
		respond.Error(writer, httpRequest, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Equal(FieldPasswordConfirmation, input.PasswordConfirmation, input.Password, "Passwords do not match")

	if err := validator.Err(); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	message, err := handler.authService.ResetPassword(httpRequest.Context(), id, passwordResetCode, input.Password)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	respond.Message(writer, message)
}

/*
CurrentUser returns the authenticated caller's identity.

GET /api/users/me

Description: Serves the verified access-token claims directly; no database
read is involved.

Response:
  - 200: Identity: Public projection from the access token
  - 403: ErrForbidden: No verified identity on the request
*/
func (handler *Handler) currentUser(writer http.ResponseWriter, httpRequest *http.Request) {
	claims := request.Claims(httpRequest)
	if claims == nil {
		// RequireUser guards this route; reaching here without claims is a wiring bug.
		respond.Error(writer, httpRequest, apperr.Forbidden("Access denied"))
		return
	}

	respond.OK(writer, claims.Identity)
}

/*
Login authenticates a user and establishes a session.

POST /api/sessions

Description: Verifies credentials and returns an access/refresh token pair.
The refresh token is presented back via the x-refresh header on refresh.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: LoginSession: Access and refresh tokens
  - 401: ErrUnauthorized: Invalid credentials or unverified account
*/
func (handler *Handler) login(writer http.ResponseWriter, httpRequest *http.Request) {
	var input loginRequest

	if err := request.DecodeJSON(httpRequest, &input); err != nil {
		respond.Error(writer, httpRequest, validate.ErrInvalidJSON)
		return
	}

	// Schema-level failures reuse the generic credential message so the
	// response never reveals which part of the input was malformed.
	validator := &validate.Validator{}
	validator.Custom(FieldEmail, input.Email == "", "Email is required").
		Custom(FieldPassword, input.Password == "", "Password is required").
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	session, err := handler.authService.Login(httpRequest.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	respond.OK(writer, session)
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/sessions/refresh

Description: Reads the refresh token from the x-refresh header, validates the
backing session, and returns a fresh access token. The refresh token itself
is not rotated.

Response:
  - 200: AccessToken: New access token
  - 401: ErrUnauthorized: Missing, invalid, or revoked refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, httpRequest *http.Request) {
	refreshToken := request.RefreshToken(httpRequest)
	if refreshToken == "" {
		respond.Error(writer, httpRequest, apperr.Unauthorized("Could not refresh access token"))
		return
	}

	accessToken, err := handler.authService.RefreshAccessToken(httpRequest.Context(), refreshToken)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldAccessToken: accessToken,
	})
}
