package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ai-trainer-be/pkg/vectordb"
)

// KnowledgeChunk is one stored chunk. All namespaces share a single table
// partitioned logically by the namespace column; a namespace "exists" once
// it has at least one row.
type KnowledgeChunk struct {
	Id        string          `gorm:"type:varchar(128);primaryKey"`
	Namespace string          `gorm:"type:varchar(128);not null;index"`
	Document  string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector(384)"` // all-MiniLM-L6-v2 uses 384 dimensions
	Metadata  datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}

// Index implements vectordb.Index on Postgres with the pgvector extension,
// using cosine distance (the <=> operator) for nearest-neighbor ordering.
type Index struct {
	db *gorm.DB
}

var _ vectordb.Index = &Index{}

func NewIndex(db *gorm.DB) (*Index, error) {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	if err := db.AutoMigrate(&KnowledgeChunk{}); err != nil {
		return nil, fmt.Errorf("failed to migrate knowledge_chunks: %w", err)
	}
	return &Index{db: db}, nil
}

// EnsureCollection is a no-op: namespaces are rows in a shared table and
// come into existence with their first Add.
func (i *Index) EnsureCollection(ctx context.Context, name string) error {
	return nil
}

func (i *Index) Add(ctx context.Context, collection string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	if len(ids) != len(documents) || len(ids) != len(embeddings) || len(ids) != len(metadatas) {
		return errors.New("pgvector: ids, documents, embeddings and metadatas must have equal length")
	}

	chunks := make([]*KnowledgeChunk, len(ids))
	for idx := range ids {
		metaJSON, err := json.Marshal(metadatas[idx])
		if err != nil {
			return fmt.Errorf("failed to marshal chunk metadata: %w", err)
		}
		chunks[idx] = &KnowledgeChunk{
			Id:        ids[idx],
			Namespace: collection,
			Document:  documents[idx],
			Embedding: pgvector.NewVector(embeddings[idx]),
			Metadata:  datatypes.JSON(metaJSON),
		}
	}

	return i.db.WithContext(ctx).Create(chunks).Error
}

func (i *Index) Query(ctx context.Context, collection string, embedding []float32, k int) (*vectordb.QueryResult, error) {
	if k <= 0 {
		k = 4
	}

	// A namespace nobody wrote to yet simply has no rows: an empty result,
	// never an error. A fresh collection in a collection-based backend
	// behaves the same way.
	queryVector := pgvector.NewVector(embedding)

	type row struct {
		Document string
		Metadata datatypes.JSON
		Distance float32
	}
	var rows []row

	err := i.db.WithContext(ctx).
		Table("knowledge_chunks").
		Select("document, metadata, embedding <=> ? as distance", queryVector).
		Where("namespace = ?", collection).
		Order("distance ASC").
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := &vectordb.QueryResult{
		Documents: make([]string, len(rows)),
		Distances: make([]float32, len(rows)),
		Metadatas: make([]map[string]interface{}, len(rows)),
	}
	for idx, r := range rows {
		result.Documents[idx] = r.Document
		result.Distances[idx] = r.Distance

		meta := make(map[string]interface{})
		if len(r.Metadata) > 0 {
			// Corrupt metadata degrades to an empty map, the hit itself survives
			_ = json.Unmarshal(r.Metadata, &meta)
		}
		result.Metadatas[idx] = meta
	}

	return result, nil
}

func (i *Index) Delete(ctx context.Context, collection string, ids []string) error {
	return i.db.WithContext(ctx).
		Where("namespace = ?", collection).
		Where("id IN ?", ids).
		Delete(&KnowledgeChunk{}).Error
}
