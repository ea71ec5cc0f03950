// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/govhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("organizations", orgsSchema())
	ensure("projects", projectsSchema())
	ensure("project_audit_logs", auditLogsSchema())
	ensure("process_templates", templatesSchema())
	ensure("process_instances", instancesSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func statusEnum() bson.A {
	out := make(bson.A, 0, len(models.AllProjectStatuses))
	for _, s := range models.AllProjectStatuses {
		out = append(out, string(s))
	}
	return out
}

func orgsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "level", "code"},
			"properties": bson.M{
				"name":      nonBlank,
				"name_ci":   nonBlank,
				"level":     bson.M{"enum": bson.A{"province", "city", "county", "branch"}},
				"code":      nonBlank,
				"parent_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func projectsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "title_ci", "status", "version"},
			"properties": bson.M{
				"title":           nonBlank,
				"title_ci":        bson.M{"bsonType": "string"},
				"status":          bson.M{"enum": statusEnum()},
				"version":         bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 1},
				"organization_id": bson.M{"bsonType": "objectId"},
				"progress_reports": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"id", "status"},
						"properties": bson.M{
							"status": bson.M{"enum": bson.A{"draft", "submitted", "returned"}},
						},
					},
				},
				"conclusion_report": bson.M{
					"bsonType": "object",
					"required": bson.A{"status"},
					"properties": bson.M{
						"status": bson.M{"enum": bson.A{"pending", "approved", "rejected"}},
					},
				},
			},
		},
	}
}

func auditLogsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"project_id", "action", "from_status", "to_status", "operator", "created_at"},
			"properties": bson.M{
				"project_id":  bson.M{"bsonType": "objectId"},
				"action":      bson.M{"enum": bson.A{"submit", "approve", "reject", "return"}},
				"from_status": bson.M{"enum": statusEnum()},
				"to_status":   bson.M{"enum": statusEnum()},
				"operator":    nonBlank,
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}

func templatesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"kind", "name", "stages", "version"},
			"properties": bson.M{
				"kind":    bson.M{"enum": bson.A{"election", "admission"}},
				"name":    nonBlank,
				"stages":  bson.M{"bsonType": "array"},
				"version": bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 1},
			},
		},
	}
}

func instancesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"kind", "template_id", "subject", "stages", "version"},
			"properties": bson.M{
				"kind":        bson.M{"enum": bson.A{"election", "admission"}},
				"template_id": bson.M{"bsonType": "objectId"},
				"subject": bson.M{
					"bsonType": "object",
					"required": bson.A{"name"},
					"properties": bson.M{
						"name": nonBlank,
					},
				},
				"stages":  bson.M{"bsonType": "array"},
				"version": bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 1},
			},
		},
	}
}
