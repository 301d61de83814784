package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"memberaccounts/internal/delivery/http/controllers"
	"memberaccounts/internal/delivery/http/middleware"
	"memberaccounts/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Mutating member routes are wrapped with bearer-token auth when a verifier
// is configured; a nil verifier leaves them open.
func NewRouter(memberController *controllers.MemberController, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Members
	mux.HandleFunc("POST /members", auth(memberController.Create))
	mux.HandleFunc("GET /members", memberController.List)
	mux.HandleFunc("GET /members/{memberID}", memberController.Get)
	mux.HandleFunc("PATCH /members/{memberID}", auth(memberController.Update))
	mux.HandleFunc("DELETE /members/{memberID}", auth(memberController.Delete))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
