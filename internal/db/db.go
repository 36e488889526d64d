package db

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

// Document is one embedded passage row in the pgvector-backed corpus table.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID             int64     `bun:"id,pk,autoincrement"`
	Content        string    `bun:"content,notnull"`
	Embedding      []float32 `bun:"embedding,notnull,type:vector(768)"`
	SourceFilename string    `bun:"source_filename"`
	PageNumber     int       `bun:"page_number"`
	ChunkID        int       `bun:"chunk_id"`
}

func ConnectDB(cfg *config.DBConfig) (*sql.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

func DropDocuments(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// StoreDocuments inserts an embedded ingestion batch in one statement.
func StoreDocuments(ctx context.Context, db *bun.DB, batch []models.PassageEmbedding) error {
	if len(batch) == 0 {
		return nil
	}
	docs := make([]Document, len(batch))
	for i, pe := range batch {
		docs[i] = Document{
			Content:        pe.Content,
			Embedding:      pe.Embedding,
			SourceFilename: pe.SourceFilename,
			PageNumber:     pe.PageNumber,
			ChunkID:        pe.ChunkID,
		}
	}
	_, err := db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// SearchDocuments returns the limit passages nearest the query embedding,
// nearest first, using the pgvector distance operator.
func SearchDocuments(ctx context.Context, db *bun.DB, queryEmbedding []float32, limit int) ([]Document, error) {
	var docs []Document
	err := db.NewSelect().
		Model(&docs).
		Column("id", "content", "source_filename", "page_number", "chunk_id").
		OrderExpr("embedding <-> ?", queryEmbedding).
		Limit(limit).
		Scan(ctx)
	return docs, err
}
