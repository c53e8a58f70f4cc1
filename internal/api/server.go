package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wheel-empire/fortune-bot/internal/log"
	"github.com/wheel-empire/fortune-bot/internal/model"
	"github.com/wheel-empire/fortune-bot/internal/services"
	"github.com/wheel-empire/fortune-bot/internal/services/auth"
)

type contextKey string

const userContextKey contextKey = "user"

// Server is the HTTP face of the claim pipeline. Transport only: every
// decision lives in the services layer.
type Server struct {
	users  *services.Users
	auth   *auth.Auth
	logger log.Logger
}

func NewServer(users *services.Users, authSrv *auth.Auth, logger log.Logger) *Server {
	return &Server{
		users:  users,
		auth:   authSrv,
		logger: logger,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverPanic)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/ads/prepare", s.handlePrepareAd).Methods(http.MethodPost)
	api.HandleFunc("/ads/claim", s.handleClaimAd).Methods(http.MethodPost)
	api.HandleFunc("/spin/prepare", s.handlePrepareSpin).Methods(http.MethodPost)
	api.HandleFunc("/spin/claim", s.handleClaimSpin).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id:[0-9]+}/claim", s.handleClaimTask).Methods(http.MethodPost)
	api.HandleFunc("/withdrawals/prepare", s.handlePrepareWithdrawal).Methods(http.MethodPost)
	api.HandleFunc("/withdrawals", s.handleCreateWithdrawal).Methods(http.MethodPost)
	api.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
	api.HandleFunc("/admin/users/{id:[0-9]+}/ban", s.handleBanUser).Methods(http.MethodPost)

	return r
}

// authenticate resolves the signed launch payload into a loaded
// account. The header form is "Authorization: tma <init data>".
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initData := strings.TrimPrefix(r.Header.Get("Authorization"), "tma ")
		if initData == "" {
			initData = r.Header.Get("X-Telegram-Init-Data")
		}
		if initData == "" {
			s.writeError(w, model.ErrUnauthenticated)
			return
		}

		user, err := s.auth.CheckingTheUser(initData)
		if err != nil {
			s.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) user(r *http.Request) *model.User {
	user, _ := r.Context().Value(userContextKey).(*model.User)
	return user
}

func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Warn("panic serving %s: %v", r.URL.Path, rec)
				s.users.Msgs.NotifyDeveloperf(false, "panic serving %s: %v", r.URL.Path, rec)
				s.writeError(w, model.ErrUpstream)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
