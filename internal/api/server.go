package api

import (
	"context"
	"net/http"
	"time"

	"example.com/backstage/services/distribution/config"
	"example.com/backstage/services/distribution/internal/api/handlers"
	"example.com/backstage/services/distribution/internal/api/middleware"
	"example.com/backstage/services/distribution/internal/auth"
	"example.com/backstage/services/distribution/internal/metrics"
	"example.com/backstage/services/distribution/internal/service"
	"example.com/backstage/services/distribution/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services bundles the business services the HTTP surface exposes
type Services struct {
	Auth       *service.AuthService
	Permission *service.PermissionService
	Delivery   *service.DeliveryService
	Mapping    *service.MappingService
	Credit     *service.CreditService
	Purchase   *service.PurchaseService
	Stock      *service.StockService
	Assignment *service.AssignmentService
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	services   Services
	tracer     tracing.Tracer
	metrics    *metrics.Metrics
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, services Services, tracer tracing.Tracer, m *metrics.Metrics) *Server {
	server := &Server{
		config:   cfg,
		services: services,
		tracer:   tracer,
		metrics:  m,
	}

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}
	server.httpServer = httpServer

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logging())
	if app := s.tracer.App(); app != nil {
		router.Use(nrgin.Middleware(app))
	}

	authHandler := handlers.NewAuthHandler(s.services.Auth, s.services.Permission)
	permHandler := handlers.NewPermissionHandler(s.services.Permission)
	deliveryHandler := handlers.NewDeliveryHandler(s.services.Delivery, s.tracer)
	mappingHandler := handlers.NewMappingHandler(s.services.Mapping)
	creditHandler := handlers.NewCreditHandler(s.services.Credit)
	purchaseHandler := handlers.NewPurchaseHandler(s.services.Purchase)
	stockHandler := handlers.NewStockHandler(s.services.Stock)
	assignmentHandler := handlers.NewAssignmentHandler(s.services.Assignment)
	metricsHandler := handlers.NewMetricsHandler(s.metrics, s.tracer)
	metricsHandler.RegisterRoutes(router)

	router.POST("/api/login", authHandler.Login)

	authed := router.Group("/api")
	authed.Use(middleware.Authenticate(s.services.Auth))
	{
		authed.GET("/permissions/user/:userId", authHandler.GetUserPermissions)

		authed.GET("/roles/:roleId/permissions",
			s.guard(auth.ResourceRoles, auth.CapabilityView),
			permHandler.GetRolePermissions)
		authed.PUT("/roles/:roleId/permissions",
			s.guard(auth.ResourceRoles, auth.CapabilityUpdate),
			permHandler.UpdateRolePermissions)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Authenticate(s.services.Auth))
	{
		delivery := v1.Group("/dailydelivery")
		{
			delivery.GET("",
				s.guard(auth.ResourceDailyDelivery, auth.CapabilityView),
				deliveryHandler.ListDeliveries)
			delivery.POST("",
				s.guard(auth.ResourceDailyDelivery, auth.CapabilityCreate),
				deliveryHandler.CreateDelivery)
			delivery.GET("/:id/with-items",
				s.guard(auth.ResourceDailyDelivery, auth.CapabilityView),
				deliveryHandler.GetDeliveryWithItems)
			delivery.POST("/:id/items/initialize",
				s.guard(auth.ResourceDailyDelivery, auth.CapabilityUpdate),
				deliveryHandler.InitializeItemActuals)
			delivery.GET("/:id/items/actuals",
				s.guard(auth.ResourceDailyDelivery, auth.CapabilityView),
				deliveryHandler.GetItemActuals)
			delivery.PUT("/:id/items/actuals",
				s.guard(auth.ResourceDailyDelivery, auth.CapabilityUpdate),
				deliveryHandler.UpdateItemActuals)
			delivery.PUT("/:id/close-with-items",
				s.guard(auth.ResourceDailyDelivery, auth.CapabilityUpdate),
				deliveryHandler.CloseDelivery)
		}

		mapping := v1.Group("/delivery-mapping")
		{
			mapping.GET("/commercial-items/:deliveryId",
				s.guard(auth.ResourceDeliveryMapping, auth.CapabilityView),
				mappingHandler.GetCommercialItems)
			mapping.GET("/delivery/:deliveryId",
				s.guard(auth.ResourceDeliveryMapping, auth.CapabilityView),
				mappingHandler.GetDeliveryMappings)
			mapping.POST("",
				s.guard(auth.ResourceDeliveryMapping, auth.CapabilityCreate),
				mappingHandler.CreateMapping)
			mapping.DELETE("/:mappingId",
				s.guard(auth.ResourceDeliveryMapping, auth.CapabilityDelete),
				mappingHandler.DeleteMapping)
		}

		credit := v1.Group("/customer-credit")
		{
			credit.GET("/:customerId",
				s.guard(auth.ResourceCustomerCredit, auth.CapabilityView),
				creditHandler.GetStatement)
			credit.POST("/payments",
				s.guard(auth.ResourceCustomerCredit, auth.CapabilityCreate),
				creditHandler.RecordPayment)
		}

		purchases := v1.Group("/purchases")
		{
			purchases.GET("",
				s.guard(auth.ResourcePurchaseEntry, auth.CapabilityView),
				purchaseHandler.ListPurchases)
			purchases.GET("/:purchaseId",
				s.guard(auth.ResourcePurchaseEntry, auth.CapabilityView),
				purchaseHandler.GetPurchase)
			purchases.POST("",
				s.guard(auth.ResourcePurchaseEntry, auth.CapabilityCreate),
				purchaseHandler.SavePurchase)
			purchases.PUT("/:purchaseId",
				s.guard(auth.ResourcePurchaseEntry, auth.CapabilityUpdate),
				purchaseHandler.TogglePurchase)
		}

		stock := v1.Group("/stockregister")
		{
			stock.GET("",
				s.guard(auth.ResourceStockRegister, auth.CapabilityView),
				stockHandler.GetRegister)
			stock.GET("/summary",
				s.guard(auth.ResourceStockRegister, auth.CapabilityView),
				stockHandler.GetSummary)
			stock.GET("/transactions",
				s.guard(auth.ResourceStockRegister, auth.CapabilityView),
				stockHandler.GetTransactions)
			stock.POST("/adjust",
				s.guard(auth.ResourceStockRegister, auth.CapabilityUpdate),
				stockHandler.AdjustStock)
		}

		assignments := v1.Group("/vehicle-assignments")
		{
			assignments.GET("",
				s.guard(auth.ResourceVehicleAssignment, auth.CapabilityView),
				assignmentHandler.ListAssignments)
			assignments.GET("/:assignmentId",
				s.guard(auth.ResourceVehicleAssignment, auth.CapabilityView),
				assignmentHandler.GetAssignment)
			assignments.POST("",
				s.guard(auth.ResourceVehicleAssignment, auth.CapabilityCreate),
				assignmentHandler.SaveAssignment)
			assignments.PUT("/:assignmentId",
				s.guard(auth.ResourceVehicleAssignment, auth.CapabilityUpdate),
				assignmentHandler.ToggleAssignment)
		}
	}

	return router
}

func (s *Server) guard(resourceKey string, capability auth.Capability) gin.HandlerFunc {
	return middleware.RequireCapability(s.services.Permission, s.metrics, resourceKey, capability)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
