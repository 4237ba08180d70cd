// Package server assembles the fiber application: global middleware, the
// route table and the services behind it.
package server

import (
	"slices"
	"strings"

	"github.com/arzan03/usermanager/internal/config"
	"github.com/arzan03/usermanager/internal/handlers"
	"github.com/arzan03/usermanager/internal/middleware"
	"github.com/arzan03/usermanager/internal/policy"
	"github.com/arzan03/usermanager/internal/services"
	"github.com/arzan03/usermanager/internal/storage"
	"github.com/arzan03/usermanager/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const uploadsPath = "/uploads"

type Server struct {
	App  *fiber.App
	Auth *services.AuthService
}

// New wires services, middleware and routes into a fiber app.
func New(cfg *config.Config, users services.UserStore, files storage.Store) *Server {
	hasher := services.NewPasswordHasher(cfg.Server.BcryptCost)
	tokens := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	auth := services.NewAuthService(users, hasher, tokens)

	app := fiber.New(fiber.Config{
		AppName:      "user-management-api",
		ErrorHandler: handlers.ErrorHandler(cfg.IsProduction()),
		BodyLimit:    int(cfg.Upload.MaxBytes) + 1<<20,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.RequestLogger())
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(corsConfig(cfg.CORS)))
	app.Use(middleware.RateLimit(cfg.RateLimit))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("User Management API is running")
	})
	if local, ok := files.(*storage.LocalStore); ok {
		app.Static(uploadsPath, local.Dir())
	}

	authHandler := handlers.NewAuthHandler(auth, cfg.IsProduction())
	userHandler := handlers.NewUserHandler(services.NewUserService(users, hasher))
	pictureHandler := handlers.NewPictureHandler(services.NewPictureService(users, files, cfg.Upload.MaxBytes))

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", middleware.ValidateBody[validation.RegisterRequest](true), authHandler.Register)
	authRoutes.Post("/login", middleware.ValidateBody[validation.LoginRequest](true), authHandler.Login)
	authRoutes.Post("/logout", authHandler.Logout)

	userRoutes := api.Group("/users", middleware.Authenticate(auth))
	userRoutes.Get("/", middleware.Authorize(policy.ListUsers), userHandler.List)
	userRoutes.Post("/",
		middleware.Authorize(policy.CreateUser),
		middleware.ValidateBody[validation.CreateUserRequest](true),
		userHandler.Create,
	)
	userRoutes.Get("/:id", middleware.Authorize(policy.GetUser), userHandler.Get)
	userRoutes.Put("/:id/profile-picture", middleware.Authorize(policy.UpdateProfilePicture), pictureHandler.UpdateProfilePicture)
	userRoutes.Put("/:id",
		middleware.Authorize(policy.UpdateUser),
		middleware.ValidateBody[validation.UpdateUserRequest](false),
		userHandler.Update,
	)
	userRoutes.Delete("/:id", middleware.Authorize(policy.DeleteUser), userHandler.Delete)

	app.Use(handlers.NotFound)

	return &Server{App: app, Auth: auth}
}

// corsConfig allows credentials unless every origin is admitted, which
// browsers refuse to combine.
func corsConfig(cfg config.CORSConfig) cors.Config {
	wildcard := len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*")
	if wildcard {
		return cors.Config{AllowOrigins: "*"}
	}
	return cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowCredentials: true,
	}
}
