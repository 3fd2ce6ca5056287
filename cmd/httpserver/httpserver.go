// Package httpserver manages server creation and api routing.
package httpserver

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/accountdelivery"
	"github.com/go-petr/ledger-bank/internal/accountrepo"
	"github.com/go-petr/ledger-bank/internal/accountservice"
	"github.com/go-petr/ledger-bank/internal/customerdelivery"
	"github.com/go-petr/ledger-bank/internal/customerrepo"
	"github.com/go-petr/ledger-bank/internal/customerservice"
	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/eventpub"
	"github.com/go-petr/ledger-bank/internal/historyservice"
	"github.com/go-petr/ledger-bank/internal/ledgerrepo"
	"github.com/go-petr/ledger-bank/internal/middleware"
	"github.com/go-petr/ledger-bank/internal/operationdelivery"
	"github.com/go-petr/ledger-bank/internal/operationservice"
	"github.com/go-petr/ledger-bank/internal/sessiondelivery"
	"github.com/go-petr/ledger-bank/internal/sessionrepo"
	"github.com/go-petr/ledger-bank/internal/sessionservice"
	"github.com/go-petr/ledger-bank/internal/userdelivery"
	"github.com/go-petr/ledger-bank/internal/userrepo"
	"github.com/go-petr/ledger-bank/internal/userservice"
	"github.com/go-petr/ledger-bank/pkg/configpkg"
	"github.com/go-petr/ledger-bank/pkg/moneypkg"
	"github.com/go-petr/ledger-bank/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config

	closers []io.Closer
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// Close releases the broker connection if one was opened.
func (s *Server) Close() error {
	var err error

	for _, c := range s.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

func newNotifier(config configpkg.Config, logger zerolog.Logger) (operationservice.Notifier, io.Closer, error) {
	if config.AMQPURL == "" {
		logger.Info().Msg("AMQP_URL is empty, operation events are disabled")
		return eventpub.Nop{}, nil, nil
	}

	p, err := eventpub.Dial(config.AMQPURL, config.AMQPExchange)
	if err != nil {
		return nil, nil, err
	}

	return p, p, nil
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := moneypkg.Register(v); err != nil {
			return nil, fmt.Errorf("cannot register money validators: %w", err)
		}
	}

	tokenMaker, err := tokenpkg.New(config.TokenKind, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	notifier, closer, err := newNotifier(config, logger)
	if err != nil {
		return nil, fmt.Errorf("cannot create operation notifier: %w", err)
	}

	userRepo := userrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)
	customerRepo := customerrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	ledgerRepo := ledgerrepo.NewRepoPGS(conn, config.LockTimeout)

	userService := userservice.New(userRepo)
	customerService := customerservice.New(customerRepo, accountRepo)
	accountService := accountservice.New(accountRepo)
	historyService := historyservice.New(ledgerRepo)
	operationService := operationservice.New(ledgerRepo, notifier, operationservice.Config{
		MaxRetries:     config.TxMaxRetries,
		RetryBaseDelay: config.TxRetryBaseDelay,
	})

	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize session service: %w", err)
	}

	err = userService.EnsureAdmin(logger.WithContext(context.Background()), userservice.AdminParams{
		Username: config.AdminUsername,
		Password: config.AdminPassword,
		Email:    config.AdminEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot bootstrap admin user: %w", err)
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)
	customerHandler := customerdelivery.NewHandler(customerService)
	accountHandler := accountdelivery.NewHandler(accountService)
	operationHandler := operationdelivery.NewHandler(operationService, historyService)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(config.CORSAllowedOrigins))

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := engine.Group("/", middleware.AuthMiddleware(tokenMaker))
	adminRoutes := authRoutes.Group("/", middleware.RequireRole(domain.RoleAdmin))

	authRoutes.GET("/auth/profile", userHandler.Profile)

	adminRoutes.POST("/customers", customerHandler.Create)
	authRoutes.GET("/customers/:id", customerHandler.Get)
	adminRoutes.PUT("/customers/:id", customerHandler.Update)
	adminRoutes.DELETE("/customers/:id", customerHandler.Delete)
	authRoutes.GET("/customers/:id/accounts", customerHandler.ListAccounts)

	adminRoutes.POST("/accounts/current", accountHandler.CreateCurrent)
	adminRoutes.POST("/accounts/savings", accountHandler.CreateSavings)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	adminRoutes.PATCH("/accounts/:id/status", accountHandler.UpdateStatus)
	authRoutes.GET("/accounts/:id/operations", operationHandler.History)
	authRoutes.GET("/accounts/:id/operations/all", operationHandler.FullHistory)

	adminRoutes.POST("/operations/credit", operationHandler.Credit)
	adminRoutes.POST("/operations/debit", operationHandler.Debit)
	adminRoutes.POST("/operations/transfer", operationHandler.Transfer)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	if closer != nil {
		server.closers = append(server.closers, closer)
	}

	return server, nil
}
