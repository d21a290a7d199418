package db

import (
	"context"
	"fmt"
	"log/slog"

	"institute-service/internal/schema"

	"github.com/uptrace/bun"
)

// Table binds a schema entity to the bun model that stores it.
type Table struct {
	Entity schema.EntityType
	Model  any
}

// RunMigrations creates the entity tables in schema order with the foreign
// keys and delete policies the schema declares, an index per foreign key
// column, and then any extra models (tables outside the relationship graph).
func RunMigrations(ctx context.Context, db bun.IDB, s *schema.Schema, tables []Table, extra ...any) error {
	models := make(map[schema.EntityType]any, len(tables))
	for _, t := range tables {
		models[t.Entity] = t.Model
	}

	for _, t := range s.Types() {
		model, ok := models[t]
		if !ok {
			return fmt.Errorf("no model registered for entity %s", t)
		}
		if err := createEntityTable(ctx, db, s, t, model); err != nil {
			return err
		}
	}

	for _, model := range extra {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for model: %w", err)
		}
	}

	slog.Info("database migrations completed successfully")
	return nil
}

func createEntityTable(ctx context.Context, db bun.IDB, s *schema.Schema, t schema.EntityType, model any) error {
	entity, _ := s.Entity(t)

	q := db.NewCreateTable().
		Model(model).
		IfNotExists()

	for _, r := range s.RelationsOf(t) {
		target, _ := s.Entity(r.Target)
		q = q.ForeignKey("(?) REFERENCES ? (?) ON DELETE "+r.OnDelete.SQL(),
			bun.Ident(r.Column), bun.Ident(target.Table), bun.Ident("id"))
	}

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table %s: %w", entity.Table, err)
	}

	for _, r := range s.RelationsOf(t) {
		_, err := db.NewCreateIndex().
			Model(model).
			Index(fmt.Sprintf("%s_%s_idx", entity.Table, r.Column)).
			Column(r.Column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to index %s.%s: %w", entity.Table, r.Column, err)
		}
	}
	return nil
}
