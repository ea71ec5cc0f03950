// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/govhub/internal/app/store/memstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the storage backends. Exactly one of the Mongo pair or Mem
// is set.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Mem           *memstore.Store
}
