// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/dalemusser/gametable/internal/app/conflict"
	"github.com/dalemusser/gametable/internal/app/notify"
	"github.com/dalemusser/gametable/internal/app/scheduling"
	availabilitystore "github.com/dalemusser/gametable/internal/app/store/availability"
	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	userstore "github.com/dalemusser/gametable/internal/app/store/users"
	"github.com/dalemusser/gametable/internal/app/system/indexes"
	"github.com/dalemusser/gametable/internal/app/system/mailer"
	"github.com/dalemusser/gametable/internal/app/system/workers"
)

// ConnectDB establishes the MongoDB connection and builds the dependency
// graph: stores, the scheduling service, the conflict resolver, outbound
// mail, and the reminder worker.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	users := userstore.New(db)
	groups := groupstore.New(db)
	availability := availabilitystore.New(db)
	sessions := sessionstore.New(db)

	scheduler := scheduling.New(availability, sessions, groups, logger)
	resolver := conflict.New(availability, sessions, groups)

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
	}, logger)
	notifier := notify.New(users, sessions, mail, appCfg.SiteName, appCfg.BaseURL, logger)
	reminder := workers.NewReminder(sessions, groups, users, mail,
		appCfg.SiteName, appCfg.BaseURL, appCfg.ReminderCron, logger)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Users:         users,
		Groups:        groups,
		Availability:  availability,
		Sessions:      sessions,
		Scheduler:     scheduler,
		Resolver:      resolver,
		Mailer:        mail,
		Notifier:      notifier,
		Reminder:      reminder,
	}, nil
}

// EnsureSchema reconciles the index set on every collection. Runs on each
// startup and is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return indexes.EnsureAll(ctx, deps.MongoDatabase)
}
