package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yigit/jobportal/internal/app/controllers"
	"github.com/yigit/jobportal/internal/app/models"
	"github.com/yigit/jobportal/internal/middleware"
)

// Controllers groups the handlers the router dispatches to
type Controllers struct {
	Home        *controllers.HomeController
	Auth        *controllers.AuthController
	Position    *controllers.PositionController
	Application *controllers.ApplicationController
	Document    *controllers.DocumentController
	User        *controllers.UserController
	Admin       *controllers.AdminController
}

// Options toggles optional routes
type Options struct {
	MetricsEnabled bool
	MetricsPath    string
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware, opts Options) {
	router.GET("/", c.Home.Home)
	router.GET("/healthz", c.Home.Health)
	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	// --- Guest routes ---
	guest := router.Group("")
	guest.Use(authMiddleware.GuestOnly())
	{
		guest.GET("/login", c.Auth.LoginPage)
		guest.POST("/login", c.Auth.Login)
		guest.GET("/register", c.Auth.RegisterPage)
		guest.POST("/register", c.Auth.Register)
	}

	password := router.Group("/password")
	{
		password.GET("/forgot", c.Auth.ForgotPasswordPage)
		password.POST("/forgot", c.Auth.ForgotPassword)
		password.GET("/reset", c.Auth.ResetPasswordPage)
		password.POST("/reset", c.Auth.ResetPassword)
	}

	// --- Public position pages ---
	router.GET("/positions", c.Position.List)
	router.GET("/positions/:id", c.Position.Detail)

	// --- Authenticated routes ---
	authenticated := router.Group("")
	authenticated.Use(authMiddleware.RequireAuth())
	{
		authenticated.POST("/logout", c.Auth.Logout)

		authenticated.GET("/min-side", c.User.Dashboard)
		authenticated.POST("/min-side/update", c.User.UpdateProfile)
		authenticated.POST("/min-side/delete", c.User.DeleteAccount)

		authenticated.POST("/documents/:id/delete", c.Document.Delete)
		authenticated.GET("/documents/:id/download", c.Document.Download)
		authenticated.POST("/applications/:id/withdraw", c.Application.Withdraw)

		// Students apply; admins may do anything a student can
		applicants := authenticated.Group("")
		applicants.Use(authMiddleware.RequireRole(models.RoleStudent, models.RoleAdmin))
		{
			applicants.POST("/documents/upload", c.Document.Upload)
			applicants.GET("/positions/:id/apply", c.Application.ApplyPage)
			applicants.POST("/positions/:id/apply", c.Application.Apply)
		}

		// Position management; ownership is checked in the services
		managers := authenticated.Group("")
		managers.Use(authMiddleware.RequireRole(models.RoleEmployee, models.RoleAdmin))
		{
			managers.GET("/positions/new", c.Position.NewForm)
			managers.POST("/positions/new", c.Position.Create)
			managers.POST("/positions/:id/edit", c.Position.Update)
			managers.POST("/positions/:id/delete", c.Position.Delete)
			managers.GET("/positions/:id/applicants", c.Application.Applicants)
			managers.POST("/positions/:id/applications/:applicationId/status", c.Application.UpdateStatus)
		}

		admin := authenticated.Group("/admin")
		admin.Use(authMiddleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", c.Admin.Users)
			admin.POST("/users/:id/role", c.Admin.UpdateRole)
			admin.POST("/users/:id/delete", c.Admin.DeleteUser)
			admin.GET("/applications", c.Admin.Applications)
			admin.POST("/applications/:id/delete", c.Admin.DeleteApplication)
		}
	}
}
