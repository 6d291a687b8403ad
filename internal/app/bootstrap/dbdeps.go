// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/gametable/internal/app/conflict"
	"github.com/dalemusser/gametable/internal/app/notify"
	"github.com/dalemusser/gametable/internal/app/scheduling"
	availabilitystore "github.com/dalemusser/gametable/internal/app/store/availability"
	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	userstore "github.com/dalemusser/gametable/internal/app/store/users"
	"github.com/dalemusser/gametable/internal/app/system/mailer"
	"github.com/dalemusser/gametable/internal/app/system/workers"
)

// DBDeps holds database and backend dependencies for the app. ConnectDB
// builds the whole graph once; the lifecycle hooks and BuildHandler consume
// it read-only afterwards.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Users        *userstore.Store
	Groups       *groupstore.Store
	Availability *availabilitystore.Store
	Sessions     *sessionstore.Store

	Scheduler *scheduling.Service
	Resolver  *conflict.Resolver
	Mailer    *mailer.Mailer
	Notifier  *notify.Notifier
	Reminder  *workers.Reminder
}
