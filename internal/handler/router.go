package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Events       *EventHandler
	Registration *RegistrationHandler
	Attendance   *AttendanceHandler
	Certificates *CertificateHandler
	Reports      *ReportHandler
	Dashboard    *DashboardHandler
	Metrics      *MetricsHandler
}

// RouterConfig carries the cross-cutting dependencies of the route table.
type RouterConfig struct {
	Prefix      string
	Tokens      middleware.TokenValidator
	Audit       middleware.AuditWriter
	AuthLimiter *middleware.RateLimiter
	UploadsDir  string
	UploadsURL  string
	EnableDocs  bool
}

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r *gin.Engine, h Handlers, cfg RouterConfig) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if cfg.UploadsDir != "" && cfg.UploadsURL != "" {
		r.Static(cfg.UploadsURL, cfg.UploadsDir)
	}

	api := r.Group(cfg.Prefix)
	authed := middleware.JWT(cfg.Tokens)
	admin := middleware.RBAC(models.RoleAdmin)
	student := middleware.RBAC(models.RoleStudent)
	staff := middleware.RequireStaff()

	auth := api.Group("/auth")
	{
		public := auth.Group("")
		if cfg.AuthLimiter != nil {
			public.Use(cfg.AuthLimiter.Middleware())
		}
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)

		auth.GET("/me", authed, h.Auth.Me)
		auth.GET("/users", authed, admin, h.Users.List)
	}

	profile := api.Group("/profile", authed)
	{
		profile.GET("/me", h.Users.GetProfile)
		profile.PUT("/me", h.Users.UpdateProfile)
		profile.POST("/image", h.Users.UploadImage)
	}

	events := api.Group("/events")
	{
		events.GET("", h.Events.List)
		events.GET("/my", authed, staff, h.Events.Mine)
		events.GET("/pending", authed, admin, h.Events.Pending)
		events.GET("/:id", middleware.OptionalJWT(cfg.Tokens), h.Events.Get)
		events.POST("", authed, h.Events.Create)
		events.PUT("/:id", authed, h.Events.Update)
		events.PUT("/:id/approve", authed, admin, h.Events.Approve)
		events.PUT("/:id/reject", authed, admin, h.Events.Reject)

		events.POST("/:id/register", authed, student, h.Registration.Register)
		events.DELETE("/:id/unregister", authed, student, h.Registration.Unregister)
		events.GET("/:id/registration-status", authed, h.Registration.Status)
		events.GET("/:id/registrations", authed, h.Registration.EventRegistrations)

		events.POST("/:id/attendance", authed, h.Attendance.Mark)
		events.GET("/:id/attendance", authed, h.Attendance.Roster)

		events.GET("/:id/certificate", authed, student,
			middleware.Audit(cfg.Audit, nil, models.AuditActionCertificate, "event"), h.Certificates.Download)
		events.GET("/:id/certificate/eligibility", authed, student, h.Certificates.Eligibility)
	}

	api.GET("/certificates/verify/:code", h.Certificates.Verify)
	api.GET("/registrations/my", authed, h.Registration.Mine)
	api.GET("/my-attendance", authed, h.Attendance.Mine)

	reports := api.Group("/reports", authed, staff)
	{
		reports.GET("/event-summary", h.Reports.EventSummary)
		reports.GET("/attendance-summary", h.Reports.AttendanceSummary)
		reports.GET("/department-summary", h.Reports.DepartmentSummary)
		reports.GET("/export", middleware.Audit(cfg.Audit, nil, models.AuditActionReportExport, "report"), h.Reports.Export)
	}

	dashboard := api.Group("/dashboard", authed)
	{
		dashboard.GET("/admin", admin, h.Dashboard.Admin)
		dashboard.GET("/coordinator", staff, h.Dashboard.Coordinator)
		dashboard.GET("/student", student, h.Dashboard.Student)
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Route not found"))
	})
}
