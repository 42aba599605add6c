// Маршруты сервера:
//
//	POST   /auth/register, /auth/challenge, /auth/verify   (публичные)
//	POST   /users/register, GET /users/lookup/{shareId}     (публичные)
//	GET    /users/devices                                   (подпись)
//	POST   /devices/pair-request, GET /devices/requests     (подпись)
//	POST   /devices/requests/{requestId}/respond            (подпись)
//	GET    /devices/paired                                  (подпись)
//	GET    /sync/notes, GET /sync/changes, POST /sync/push  (подпись)
//	GET    /sync/ws                                         (подпись, websocket)
//	POST   /images/upload, POST /images/upload-url          (подпись)
//	GET    /images/note/{noteId}, DELETE /images/{imageId}  (подпись)
//	GET    /health
package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	authAPI "notesync/internal/app/server/api/http/auth"
	deviceAPI "notesync/internal/app/server/api/http/device"
	healthAPI "notesync/internal/app/server/api/http/health"
	imageAPI "notesync/internal/app/server/api/http/image"
	"notesync/internal/app/server/api/http/middleware"
	"notesync/internal/app/server/api/http/middleware/auth"
	"notesync/internal/app/server/api/http/middleware/logger"
	syncAPI "notesync/internal/app/server/api/http/sync"
	userAPI "notesync/internal/app/server/api/http/user"
	"notesync/internal/app/server/api/ws"
	"notesync/internal/app/server/config"
	"notesync/internal/domain/attachment"
	"notesync/internal/domain/identity"
	"notesync/internal/domain/pairing"
	"notesync/internal/domain/sync"
	"notesync/internal/domain/user"
	"notesync/internal/infrastructure/blob"
	"notesync/internal/infrastructure/storage/postgres"
)

const (
	title   = "Notesync API"
	version = "1.0.0"
)

// Deps внешние ресурсы, которыми владеет вызывающий (закрывает их сам)
type Deps struct {
	Config  *config.Config
	Storage *postgres.Storage
	Blob    blob.Store
	Remover *blob.Remover
	Hub     *ws.Hub
	Log     *slog.Logger
}

type Handlers struct {
	Health *healthAPI.Handler
	Auth   *authAPI.Handler
	User   *userAPI.Handler
	Device *deviceAPI.Handler
	Sync   *syncAPI.Handler
	Image  *imageAPI.Handler
	WS     *ws.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register и websocket маршрутом
func New(deps Deps) *chi.Mux {
	apierror.Install(deps.Config.ExposeDetails())

	mux := chi.NewMux()

	conf := huma.DefaultConfig(title, version)
	conf.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"signature": {
			Type: "apiKey",
			In:   "header",
			Name: auth.HeaderSignature,
			Description: "Подпись RSA-SHA256 (base64) значения заголовка challenge; " +
				"также нужны заголовки key-fingerprint и device-id.",
		},
	}

	API := humachi.New(mux, conf)

	h := handlers(API, deps)
	h.Health.SetupRoutes(API)
	h.Auth.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Device.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Image.SetupRoutes(API)

	mux.Method(http.MethodGet, "/sync/ws", h.WS)

	return mux
}

func handlers(API huma.API, deps Deps) *Handlers {
	log := deps.Log
	s := deps.Storage

	identityRepo := postgres.NewIdentityRepository(s, log)
	identityService := identity.NewService(identityRepo, s, log)

	authMW := auth.New(identityService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(s, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	authHandler := authAPI.NewHandler(identityService, log, middlewares.GetAllAndClear())

	userRepo := postgres.NewUserRepository(s, log)
	userService := user.NewService(userRepo, identityRepo, s, user.NewValidator(), log)
	middlewares.Add(loggerMW.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware(API))
	userHandler := userAPI.NewHandler(userService, log, public, middlewares.GetAllAndClear())

	pairingRepo := postgres.NewPairingRepository(s, log)
	pairingService := pairing.NewService(pairingRepo, userRepo, s, deps.Hub, log)
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware(API))
	deviceHandler := deviceAPI.NewHandler(pairingService, log, middlewares.GetAllAndClear())

	syncRepo := postgres.NewSyncRepository(s, log)
	syncService := sync.NewService(syncRepo, s, sync.NewPatcher(), deps.Hub, log, sync.Config{
		MaxBatch: deps.Config.Sync.MaxBatch,
	})
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware(API))
	syncHandler := syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear())

	imageRepo := postgres.NewImageRepository(s, log)
	imageConf := attachment.Config{
		MaxBytes:     deps.Config.Images.MaxBytes,
		URLTTL:       deps.Config.Images.URLTTL,
		UploadURLTTL: deps.Config.Images.UploadURLTTL,
	}
	imageService := attachment.NewService(imageRepo, syncRepo, deps.Blob, deps.Remover, s, deps.Hub, log, imageConf)
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware(API))
	imageHandler := imageAPI.NewHandler(imageService, log, middlewares.GetAllAndClear(), imageService.MaxBytes())

	return &Handlers{
		Health: healthHandler,
		Auth:   authHandler,
		User:   userHandler,
		Device: deviceHandler,
		Sync:   syncHandler,
		Image:  imageHandler,
		WS:     ws.NewHandler(deps.Hub, identityService, log),
	}
}
