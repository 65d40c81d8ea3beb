package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/kcnotes/kcnotes"
	"github.com/kcnotes/kcnotes/auth"
	"github.com/kcnotes/kcnotes/config"
	"github.com/kcnotes/kcnotes/notes"
)

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	repo   auth.RepositoryManager
	auth   *auth.Auther
	auther *auth.RouteAuthenticator
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("kcnotes"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	RegisterRoutes(app)

	app.srv.Serve(app.Config().GetServer().GetAddr())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*auth.User)(nil))
	persistence.RegisterModel((*notes.Note)(nil))

	cfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(kcnotes.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = auth.NewRepositoryManager(client.DB())

	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	app.repo.MustValidate()

	auther := auth.NewAuthenticator(app.repo, app.Config().GetAuth()).
		WithLogger(app.GetLogger("auth"))

	routeAuth, err := auth.NewHTTPAuthenticator(auther, app.Config().GetAuth())
	if err != nil {
		return err
	}

	app.auth = auther
	app.auther = routeAuth

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: app.Config().GetApp().GetDebug(),
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv

	return nil
}

func RegisterRoutes(app *App) {
	protected := app.auther.ProtectedRoute(
		app.auther.MakeClientRouteAuthErrorHandler(false),
	)

	authController := auth.NewHTTPController(
		app.repo,
		app.auth,
		auth.WithControllerLogger(app.GetLogger("auth.http")),
		auth.WithControllerContextKey(app.Config().GetAuth().GetContextKey()),
	)
	authController.RegisterRoutes(app.srv.Router().Group("/auth"), protected)

	notesService := notes.NewService(notes.NewNotesRepository(app.bunDB)).
		WithLogger(app.GetLogger("notes"))

	notesController := notes.NewHTTPController(
		notesService,
		notes.WithControllerLogger(app.GetLogger("notes.http")),
		notes.WithControllerContextKey(app.Config().GetAuth().GetContextKey()),
	)
	notesController.RegisterRoutes(app.srv.Router().Group("/notes"), protected)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
