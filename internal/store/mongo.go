package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsflow/internal/article"
	"newsflow/internal/newsapi"
)

const (
	summaryCollection = "super_collections"
	summaryDocID      = "news_collections"

	// titlePrefixSentinel closes a title range query over all strings that
	// start with the prefix.
	titlePrefixSentinel = "\uf8ff"
)

// Connect dials Mongo and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return client, nil
}

// Mongo implements Store on a Mongo database.
type Mongo struct {
	db     *mongo.Database
	logger zerolog.Logger
}

func NewMongo(db *mongo.Database, logger zerolog.Logger) *Mongo {
	return &Mongo{db: db, logger: logger}
}

// EnsureIndexes creates the per-category indexes the pipeline relies on: a
// unique index on id (the document key) and a unique index on fingerprint,
// which backstops the exact-dedup invariant at the storage layer.
func (m *Mongo) EnsureIndexes(ctx context.Context, categories []string) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "title", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "keywords", Value: 1}},
		},
	}

	for _, cat := range categories {
		col := m.db.Collection(CategoryCollection(cat))
		if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
			m.logger.Error().Err(err).Str("category", cat).Msg("failed to create indexes")
			return err
		}
	}
	return nil
}

func (m *Mongo) FingerprintExists(ctx context.Context, category, fingerprint string) (bool, error) {
	col := m.db.Collection(CategoryCollection(category))

	err := col.FindOne(ctx, bson.M{"fingerprint": fingerprint},
		options.FindOne().SetProjection(bson.M{"id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Mongo) SaveArticle(ctx context.Context, category string, a *article.Article) error {
	col := m.db.Collection(CategoryCollection(category))

	_, err := col.ReplaceOne(ctx,
		bson.M{"id": a.ID},
		a,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save article %s in %s: %w", a.ID, category, err)
	}
	return nil
}

func (m *Mongo) ListArticles(ctx context.Context, category string) ([]article.Article, error) {
	col := m.db.Collection(CategoryCollection(category))

	cur, err := col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var docs []article.Article
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) DeleteArticles(ctx context.Context, category string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	col := m.db.Collection(CategoryCollection(category))

	models := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		models = append(models, mongo.NewDeleteOneModel().SetFilter(bson.M{"id": id}))
	}

	res, err := col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *Mongo) DeleteAllArticles(ctx context.Context, category string) (int64, error) {
	col := m.db.Collection(CategoryCollection(category))

	res, err := col.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *Mongo) ArticlesWithoutImage(ctx context.Context, category string) ([]article.Article, error) {
	col := m.db.Collection(CategoryCollection(category))

	// Matches empty, null and missing imageUrl alike.
	cur, err := col.Find(ctx, bson.M{"imageUrl": bson.M{"$in": bson.A{"", nil}}})
	if err != nil {
		return nil, err
	}
	var docs []article.Article
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) SearchTitlePrefix(ctx context.Context, category, prefix string, limit int64) ([]article.Article, error) {
	col := m.db.Collection(CategoryCollection(category))

	cur, err := col.Find(ctx,
		bson.M{"title": bson.M{"$gte": prefix, "$lte": prefix + titlePrefixSentinel}},
		options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var docs []article.Article
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) SearchKeyword(ctx context.Context, category, keyword string, limit int64) ([]article.Article, error) {
	col := m.db.Collection(CategoryCollection(category))

	cur, err := col.Find(ctx,
		bson.M{"keywords": keyword},
		options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var docs []article.Article
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ReplaceSearchResults fully replaces the named search collection. Re-running
// a search overwrites the prior result set rather than merging into it.
func (m *Mongo) ReplaceSearchResults(ctx context.Context, name string, results []SearchResult) error {
	col := m.db.Collection(name)

	if err := col.Drop(ctx); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	if len(results) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(results))
	for i := range results {
		docs = append(docs, results[i])
	}
	if _, err := col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert into %s: %w", name, err)
	}
	return nil
}

// InitSummary creates the singleton summary document on first run and adds
// bookkeeping slots for categories that appeared since. Existing per-category
// counts are never reset.
func (m *Mongo) InitSummary(ctx context.Context, categories []string) error {
	col := m.db.Collection(summaryCollection)
	now := time.Now().UTC()

	var existing Summary
	err := col.FindOne(ctx, bson.M{"_id": summaryDocID}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		doc := Summary{
			ID:                summaryDocID,
			LastUpdated:       now,
			TotalCategories:   len(categories),
			Categories:        make(map[string]CategorySummary, len(categories)),
			SearchCollections: map[string]SearchEntry{},
		}
		for _, cat := range categories {
			doc.Categories[strings.ToLower(cat)] = CategorySummary{
				Name:        cat,
				LastUpdated: now,
			}
		}
		_, err := col.InsertOne(ctx, doc)
		return err
	}
	if err != nil {
		return err
	}

	set := bson.M{"totalCategories": len(categories)}
	for _, cat := range categories {
		key := strings.ToLower(cat)
		if _, ok := existing.Categories[key]; ok {
			continue
		}
		set["categories."+key] = CategorySummary{Name: cat, LastUpdated: now}
	}

	_, err = col.UpdateOne(ctx, bson.M{"_id": summaryDocID}, bson.M{"$set": set})
	return err
}

// RecordCycle folds one category's ingestion outcome into the summary:
// counts are incremented, timestamps overwritten, and the limiter state
// mirrored for observability.
func (m *Mongo) RecordCycle(ctx context.Context, category string, added int, snap newsapi.Snapshot) error {
	col := m.db.Collection(summaryCollection)
	now := time.Now().UTC()
	key := strings.ToLower(category)

	_, err := col.UpdateOne(ctx,
		bson.M{"_id": summaryDocID},
		bson.M{
			"$inc": bson.M{"categories." + key + ".articleCount": added},
			"$set": bson.M{
				"categories." + key + ".lastUpdated": now,
				"lastUpdated":                        now,
				"rateLimit":                          snap,
			},
		})
	return err
}

func (m *Mongo) RegisterSearch(ctx context.Context, entry SearchEntry) error {
	col := m.db.Collection(summaryCollection)

	_, err := col.UpdateOne(ctx,
		bson.M{"_id": summaryDocID},
		bson.M{"$set": bson.M{
			"searchCollections." + entry.CollectionName: entry,
			"lastSearchUpdate": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true))
	return err
}
