package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	blog "github.com/penmark/go-blog"
)

func main() {
	createSuperuser := flag.Bool("createsuperuser", false, "create a superuser account and exit")
	viewsDir := flag.String("views", "./views", "mail template directory")
	flag.Parse()

	cfg, err := blog.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := blog.NewLogger("blog")

	db, err := blog.OpenDB(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("unable to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := blog.CreateSchema(ctx, db); err != nil {
		log.Fatalf("unable to create schema: %v", err)
	}

	repo := blog.NewRepositoryManager(db)
	repo.MustValidate()

	if *createSuperuser {
		if err := runCreateSuperuser(ctx, repo); err != nil {
			log.Fatal(err)
		}
		return
	}

	tokens := blog.NewTokenService(
		cfg.Auth.SigningKey,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
		cfg.Auth.Issuer,
		cfg.Auth.Audience,
		logger,
	)

	linkOpts := []blog.StateTokenOption{
		blog.WithTokenBucket(cfg.Links.Bucket),
		blog.WithTokenWindow(cfg.Links.Window),
	}
	activation := blog.NewActivationTokenService(cfg.Auth.SigningKey, linkOpts...)
	reset := blog.NewPasswordResetTokenService(cfg.Auth.SigningKey, linkOpts...)

	var mailer blog.Mailer = blog.NewLogMailer(logger)
	if cfg.SMTP.Enabled {
		mailer = blog.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	}

	notifier, err := blog.NewMailNotifier(*viewsDir, mailer, cfg.Server.BaseURL, cfg.Server.Site)
	if err != nil {
		log.Fatalf("unable to set up mail notifier: %v", err)
	}

	controller := blog.NewAPIController(
		blog.WithControllerDebug(cfg.Debug),
		blog.WithControllerLogger(logger),
		blog.WithControllerRepo(repo),
		blog.WithControllerTokens(tokens),
		blog.WithControllerStateTokens(activation, reset),
		blog.WithControllerNotifier(notifier),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.Site,
		ErrorHandler: blog.NewErrorHandler(logger),
	})

	controller.RegisterRoutes(app)

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	logger.Info("listening on :%s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
}

// runCreateSuperuser provisions an administrative account from the
// SUPERUSER_* environment variables. Superusers skip activation.
func runCreateSuperuser(ctx context.Context, repo blog.RepositoryManager) error {
	record := &blog.User{
		Email:     os.Getenv("SUPERUSER_EMAIL"),
		FirstName: os.Getenv("SUPERUSER_FIRST_NAME"),
		LastName:  os.Getenv("SUPERUSER_LAST_NAME"),
		Phone:     os.Getenv("SUPERUSER_PHONE"),
	}

	if record.Email == "" {
		return errMissingSuperuserEnv
	}

	password := os.Getenv("SUPERUSER_PASSWORD")
	if len(password) < blog.MinPasswordLength {
		return errMissingSuperuserEnv
	}

	if record.Phone != "" {
		phone, err := blog.NormalizePhone(record.Phone)
		if err != nil {
			return err
		}
		record.Phone = phone
	}

	created, err := repo.Users().CreateSuperuser(ctx, record, password)
	if err != nil {
		return err
	}

	log.Printf("superuser created: %s (%s)", created.Email, created.ID)
	return nil
}

var errMissingSuperuserEnv = errors.New("SUPERUSER_EMAIL and SUPERUSER_PASSWORD (min 8 chars) are required")
