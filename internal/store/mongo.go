package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Adda-Baaj/bazar-khobor/internal/domain"
)

const (
	newsCollection        = "all_news"
	preferencesCollection = "user_preferences"

	connectTimeout = 10 * time.Second
)

// Mongo implements NewsStore, PreferenceStore, and SnippetStore over a single
// MongoDB database.
type Mongo struct {
	client      *mongo.Client
	news        *mongo.Collection
	preferences *mongo.Collection
}

// NewMongo connects to MongoDB and binds the news and preference collections.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	return &Mongo{
		client:      client,
		news:        db.Collection(newsCollection),
		preferences: db.Collection(preferencesCollection),
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// InsertNews appends one document. Opaque string payloads are wrapped as
// {"raw_text": ...} since a bare string is not a valid document.
func (m *Mongo) InsertNews(ctx context.Context, doc any) error {
	if s, ok := doc.(string); ok {
		doc = bson.M{"raw_text": s}
	}

	if _, err := m.news.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert news document: %w", err)
	}
	return nil
}

// LatestNews loads the most recent documents and decodes the structured ones.
func (m *Mongo) LatestNews(ctx context.Context, limit int) ([]domain.NewsDocument, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"_id": 0})

	cursor, err := m.news.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find latest news: %w", err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode latest news: %w", err)
	}

	docs := make([]domain.NewsDocument, 0, len(raw))
	for _, entry := range raw {
		if doc := decodeNewsDocument(entry); len(doc) > 0 {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// decodeNewsDocument converts a stored map into a NewsDocument, keeping only
// entries shaped as article lists.
func decodeNewsDocument(entry bson.M) domain.NewsDocument {
	doc := make(domain.NewsDocument)
	for source, value := range entry {
		items, ok := value.(bson.A)
		if !ok {
			continue
		}

		articles := make([]domain.Article, 0, len(items))
		for _, item := range items {
			fields, ok := item.(bson.M)
			if !ok {
				continue
			}
			articles = append(articles, domain.Article{
				Title:   asString(fields["title"]),
				Summary: asString(fields["summary"]),
				Link:    asString(fields["link"]),
				Topic:   domain.Topic(asString(fields["topic"])),
			})
		}
		if len(articles) > 0 {
			doc[source] = articles
		}
	}
	return doc
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// UpsertPreference inserts or replaces the user's topic set, following the
// distinct-then-update contract of the preference API.
func (m *Mongo) UpsertPreference(ctx context.Context, pref domain.UserPreference) error {
	existing, err := m.preferences.Distinct(ctx, "user_id", bson.M{})
	if err != nil {
		return fmt.Errorf("distinct user ids: %w", err)
	}

	for _, id := range existing {
		if id == pref.UserID {
			_, err := m.preferences.UpdateOne(ctx,
				bson.M{"user_id": pref.UserID},
				bson.M{"$set": bson.M{"topics": pref.Topics}},
			)
			if err != nil {
				return fmt.Errorf("update preference: %w", err)
			}
			return nil
		}
	}

	if _, err := m.preferences.InsertOne(ctx, pref); err != nil {
		return fmt.Errorf("insert preference: %w", err)
	}
	return nil
}

// GetPreference loads one user's preference record.
func (m *Mongo) GetPreference(ctx context.Context, userID string) (domain.UserPreference, bool, error) {
	var pref domain.UserPreference
	err := m.preferences.FindOne(ctx, bson.M{"user_id": userID}).Decode(&pref)
	if err == mongo.ErrNoDocuments {
		return domain.UserPreference{}, false, nil
	}
	if err != nil {
		return domain.UserPreference{}, false, fmt.Errorf("find preference: %w", err)
	}
	return pref, true, nil
}

// ListPreferences loads every preference record.
func (m *Mongo) ListPreferences(ctx context.Context) ([]domain.UserPreference, error) {
	cursor, err := m.preferences.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find preferences: %w", err)
	}
	defer cursor.Close(ctx)

	var prefs []domain.UserPreference
	if err := cursor.All(ctx, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

// LatestSnippets unwinds the most recent documents into per-source article
// groups, optionally filtered to one topic.
func (m *Mongo) LatestSnippets(ctx context.Context, topic string, limit int) ([]SourceSnippets, error) {
	if limit <= 0 {
		limit = 10
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "news_sources", Value: bson.D{{Key: "$objectToArray", Value: "$$ROOT"}}}}}},
		bson.D{{Key: "$unwind", Value: "$news_sources"}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "source", Value: "$news_sources.k"},
			{Key: "articles", Value: "$news_sources.v"},
		}}},
		bson.D{{Key: "$unwind", Value: "$articles"}},
	}
	if topic != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "articles.topic", Value: topic}}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$source"},
			{Key: "articles", Value: bson.D{{Key: "$push", Value: "$articles"}}},
		}}},
	)

	cursor, err := m.news.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate news snippets: %w", err)
	}
	defer cursor.Close(ctx)

	var snippets []SourceSnippets
	if err := cursor.All(ctx, &snippets); err != nil {
		return nil, fmt.Errorf("decode news snippets: %w", err)
	}

	sort.Slice(snippets, func(i, j int) bool { return snippets[i].Source < snippets[j].Source })
	return snippets, nil
}
