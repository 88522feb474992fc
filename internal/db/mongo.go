package db

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/gate"
	"mspro-labs/plage-watch/internal/models"
)

// MongoStore keeps beaches as documents keyed by a unique "key" index.
type MongoStore struct {
	client *mongo.Client
	beach  *mongo.Collection
	clock  clockwork.Clock
}

// beachDocument mirrors BeachRecord; bson names match models.Field values.
type beachDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Key            string             `bson:"key"`
	Name           string             `bson:"name"`
	Municipality   string             `bson:"municipality,omitempty"`
	WaterBody      string             `bson:"water_body,omitempty"`
	RegionID       string             `bson:"region_id,omitempty"`
	RegionName     string             `bson:"region_name,omitempty"`
	Rating         string             `bson:"rating,omitempty"`
	LastSampleDate string             `bson:"last_sample_date,omitempty"`
	Link           string             `bson:"link,omitempty"`
	Image          string             `bson:"image,omitempty"`
	FirstScrapedAt time.Time          `bson:"first_scraped_at"`
	LastScrapedAt  time.Time          `bson:"last_scraped_at"`
}

// OpenMongo connects, pings and makes sure the key index exists.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetWriteConcern(writeconcern.Majority())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, eris.Wrap(err, "db: connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, eris.Wrap(err, "db: ping MongoDB")
	}

	s := &MongoStore{
		client: client,
		beach:  client.Database(database).Collection(collection),
		clock:  clockwork.NewRealClock(),
	}
	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// SetClock swaps the time source used for scrape timestamps.
func (s *MongoStore) SetClock(c clockwork.Clock) {
	s.clock = c
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.beach.Indexes().CreateOne(ctx, indexModel); err != nil {
		return eris.Wrap(err, "db: create key index")
	}

	indexModel = mongo.IndexModel{
		Keys: bson.D{{Key: "region_id", Value: 1}},
	}
	if _, err := s.beach.Indexes().CreateOne(ctx, indexModel); err != nil {
		zap.L().Named("db").Warn("could not create region index", zap.Error(err))
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Upsert sets descriptive fields only; link and image stay out of the update
// document so a re-scrape cannot clear them.
func (s *MongoStore) Upsert(ctx context.Context, rec models.BeachRecord) error {
	_, err := s.upsert(ctx, rec)
	return err
}

func (s *MongoStore) upsert(ctx context.Context, rec models.BeachRecord) (int64, error) {
	if rec.Key == "" {
		return 0, eris.Wrapf(models.ErrMalformedRow, "db: upsert %q without key", rec.Name)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := s.clock.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":                             rec.Name,
			string(models.FieldMunicipality):   rec.Municipality,
			string(models.FieldWaterBody):      rec.WaterBody,
			string(models.FieldRegionID):       rec.RegionID,
			string(models.FieldRegionName):     rec.RegionName,
			string(models.FieldRating):         rec.Rating,
			string(models.FieldLastSampleDate): rec.LastSampleDate,
			"last_scraped_at":                  now,
		},
		"$setOnInsert": bson.M{
			"key":              rec.Key,
			"first_scraped_at": now,
		},
	}

	res, err := s.beach.UpdateOne(ctx, bson.M{"key": rec.Key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s", rec.Key)
	}
	return res.ModifiedCount + res.UpsertedCount, nil
}

// UpsertAll upserts records one by one; each write is acknowledged before the next.
func (s *MongoStore) UpsertAll(ctx context.Context, recs []models.BeachRecord) (int64, error) {
	var total int64
	for _, rec := range recs {
		n, err := s.upsert(ctx, rec)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// UpdateField sets one field without upserting, so unknown keys are left alone.
func (s *MongoStore) UpdateField(ctx context.Context, key string, field models.Field, value string) error {
	if err := field.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.beach.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{string(field): value}})
	if err != nil {
		return eris.Wrapf(err, "db: update %s.%s", key, field)
	}
	return nil
}

// QueryMissingEnrichment returns gate-flagged records in insertion order.
func (s *MongoStore) QueryMissingEnrichment(ctx context.Context) ([]models.BeachRecord, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var pending []models.BeachRecord
	for _, rec := range all {
		if gate.NeedsEnrichment(rec) {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

// All returns every record sorted by _id, which follows insertion order.
func (s *MongoStore) All(ctx context.Context) ([]models.BeachRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cursor, err := s.beach.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, eris.Wrap(err, "db: find beaches")
	}
	defer cursor.Close(ctx)

	var recs []models.BeachRecord
	for cursor.Next(ctx) {
		var doc beachDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, eris.Wrap(err, "db: decode beach")
		}
		recs = append(recs, doc.record())
	}
	if err := cursor.Err(); err != nil {
		return nil, eris.Wrap(err, "db: iterate beaches")
	}
	return recs, nil
}

// Get returns the record stored under key.
func (s *MongoStore) Get(ctx context.Context, key string) (models.BeachRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc beachDocument
	err := s.beach.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.BeachRecord{}, false, nil
	}
	if err != nil {
		return models.BeachRecord{}, false, eris.Wrapf(err, "db: get %s", key)
	}
	return doc.record(), true, nil
}

func (d beachDocument) record() models.BeachRecord {
	return models.BeachRecord{
		ID:             d.ID.Hex(),
		Key:            d.Key,
		Name:           d.Name,
		Municipality:   d.Municipality,
		WaterBody:      d.WaterBody,
		RegionID:       d.RegionID,
		RegionName:     d.RegionName,
		Rating:         d.Rating,
		LastSampleDate: d.LastSampleDate,
		Link:           d.Link,
		Image:          d.Image,
		FirstScrapedAt: d.FirstScrapedAt,
		LastScrapedAt:  d.LastScrapedAt,
	}
}
