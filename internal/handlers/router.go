package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nileshk/tiffinbox/internal/handlers/middleware"
	"github.com/nileshk/tiffinbox/internal/handlers/render"
	"github.com/nileshk/tiffinbox/internal/handlers/userctx"
	"github.com/nileshk/tiffinbox/internal/logger"
	"github.com/nileshk/tiffinbox/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// AuthVerifier authenticates a request, same contract the auth middleware wants
type AuthVerifier interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type RouterServices struct {
	Auth     authService
	Verifier AuthVerifier
	Users    registrationService
	Wallet   walletService
	Tiffin   tiffinService
	Order    orderService
	Delivery deliveryService
}

func NewRouter(services RouterServices, l logger.Logger) http.Handler {
	withAuth := middleware.AuthMiddleware(services.Verifier)

	tiffins := withAuth(NewTiffin(services.Tiffin, l).Handler())
	orders := withAuth(NewOrder(services.Order, l).Handler())
	wallet := withAuth(NewWallet(services.Wallet, l).Handler())

	api := http.NewServeMux()
	api.Handle("/auth/", http.StripPrefix("/auth", NewAuth(services.Auth, services.Users).Handler()))

	api.Handle("/tiffins", tiffins)
	api.Handle("/tiffins/", tiffins)
	api.Handle("/orders", orders)
	api.Handle("/orders/", orders)
	deliveries := withAuth(NewDelivery(services.Delivery, l).Handler())
	api.Handle("/deliveries", deliveries)
	api.Handle("/deliveries/", deliveries)
	api.Handle("/wallet", wallet)
	api.Handle("/wallet/", wallet)
	api.Handle("/bank-accounts", wallet)

	api.Handle("GET /me", withAuth(handleMe()))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}

func handleMe() http.Handler {
	type response struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
		Role     string    `json:"role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, response{ID: user.ID, Username: user.Username, Role: user.Role})
	})
}
