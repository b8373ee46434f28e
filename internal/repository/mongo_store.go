package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/photogallery/server/internal/models"
)

// MongoDB collection names
const (
	mongoPhotos      = "photos"
	mongoCollections = "collections"
	mongoCategories  = "categories"
)

// MongoStore is the MongoDB backend. Photos carry their collection and
// category references as arrays of IDs.
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	assetBaseURL string
}

// NewMongoStore connects to uri and uses the database named after dataset
func NewMongoStore(ctx context.Context, uri, dataset, assetBaseURL string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &MongoStore{
		client:       client,
		db:           client.Database(dataset),
		assetBaseURL: assetBaseURL,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	photoIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "collections", Value: 1}}},
		{Keys: bson.D{{Key: "categories", Value: 1}}},
		{Keys: bson.D{{Key: "displayOrder", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := s.db.Collection(mongoPhotos).Indexes().CreateMany(ctx, photoIndexes); err != nil {
		return fmt.Errorf("failed to create photo indexes: %w", err)
	}

	slugIndex := mongo.IndexModel{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique}
	for _, name := range []string{mongoCollections, mongoCategories} {
		if _, err := s.db.Collection(name).Indexes().CreateOne(ctx, slugIndex); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) Photos() PhotoRepo           { return &mongoPhotoRepo{store: s} }
func (s *MongoStore) Collections() CollectionRepo { return &mongoCollectionRepo{store: s} }
func (s *MongoStore) Categories() CategoryRepo    { return &mongoCategoryRepo{store: s} }
func (s *MongoStore) Driver() string              { return DriverMongo }

// Ping verifies the server is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Documents

type mongoCollectionRef struct {
	ID    string `bson:"_id"`
	Title string `bson:"title"`
	Slug  string `bson:"slug"`
}

type mongoPhoto struct {
	ID             string                 `bson:"_id"`
	Title          string                 `bson:"title"`
	Slug           string                 `bson:"slug"`
	Description    *string                `bson:"description,omitempty"`
	Price          *primitive.Decimal128  `bson:"price,omitempty"`
	ImagePath      string                 `bson:"imagePath,omitempty"`
	Collections    []string               `bson:"collections"`
	Categories     []string               `bson:"categories"`
	DateTaken      *time.Time             `bson:"dateTaken,omitempty"`
	CameraSettings *models.CameraSettings `bson:"cameraSettings,omitempty"`
	DisplayOrder   *float64               `bson:"displayOrder,omitempty"`
	CreatedAt      time.Time              `bson:"createdAt"`

	// Filled by $lookup, never stored
	CollectionRefs []mongoCollectionRef `bson:"collectionRefs,omitempty"`
}

func (d *mongoPhoto) toModel(assetBaseURL string) *models.Photo {
	p := &models.Photo{
		ID:             d.ID,
		Title:          d.Title,
		Slug:           d.Slug,
		Description:    d.Description,
		ImagePath:      d.ImagePath,
		ImageURL:       assetURL(assetBaseURL, d.ImagePath),
		DateTaken:      d.DateTaken,
		CameraSettings: d.CameraSettings,
		DisplayOrder:   d.DisplayOrder,
		CreatedAt:      d.CreatedAt,
		CollectionIDs:  d.Collections,
		CategoryIDs:    d.Categories,
	}
	if d.Price != nil {
		if price, err := decimal.NewFromString(d.Price.String()); err == nil {
			p.Price = &price
		}
	}
	if p.CameraSettings.IsEmpty() {
		p.CameraSettings = nil
	}

	// $lookup does not keep the order of the reference array
	refs := make(map[string]mongoCollectionRef, len(d.CollectionRefs))
	for _, ref := range d.CollectionRefs {
		refs[ref.ID] = ref
	}
	for _, id := range d.Collections {
		if ref, ok := refs[id]; ok {
			p.Collections = append(p.Collections, models.CollectionRef{ID: ref.ID, Title: ref.Title, Slug: ref.Slug})
		}
	}
	return p
}

type mongoCollection struct {
	ID           string     `bson:"_id"`
	Title        string     `bson:"title"`
	Slug         string     `bson:"slug"`
	Description  *string    `bson:"description,omitempty"`
	CoverPhotoID *string    `bson:"coverPhotoId,omitempty"`
	DisplayOrder *float64   `bson:"displayOrder,omitempty"`
	CreatedAt    *time.Time `bson:"createdAt,omitempty"`

	// Computed by the aggregation
	PhotoCount     int    `bson:"photoCount,omitempty"`
	CoverImagePath string `bson:"coverImagePath,omitempty"`
}

type mongoCategory struct {
	ID          string  `bson:"_id"`
	Title       string  `bson:"title"`
	Slug        string  `bson:"slug"`
	Description *string `bson:"description,omitempty"`

	PhotoCount int `bson:"photoCount,omitempty"`
}

// Pipeline stages

// nullsLastStage flags documents missing field so a sort can push them last
func nullsLastStage(field string) bson.D {
	return bson.D{{Key: "$addFields", Value: bson.M{
		"_orderMissing": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$" + field, nil}}, nil}}, 1, 0,
		}},
	}}}
}

func collectionRefsLookup() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from":         mongoCollections,
		"localField":   "collections",
		"foreignField": "_id",
		"as":           "collectionRefs",
	}}}
}

// photoCountStages counts the photos whose refField array contains the document's _id
func photoCountStages(refField string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from": mongoPhotos,
			"let":  bson.M{"refId": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{
					"$in": bson.A{"$$refId", bson.M{"$ifNull": bson.A{"$" + refField, bson.A{}}}},
				}}},
				bson.M{"$project": bson.M{"_id": 1}},
			},
			"as": "members",
		}}},
		{{Key: "$addFields", Value: bson.M{"photoCount": bson.M{"$size": "$members"}}}},
		{{Key: "$project", Value: bson.M{"members": 0}}},
	}
}

func aggregateAll[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]*T, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var docs []*T
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return docs, nil
}

// mongoPhotoRepo implements PhotoRepo
type mongoPhotoRepo struct {
	store *MongoStore
}

func (r *mongoPhotoRepo) listing(ctx context.Context, match bson.M) ([]*models.Photo, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		nullsLastStage("displayOrder"),
		{{Key: "$sort", Value: bson.D{{Key: "_orderMissing", Value: 1}, {Key: "displayOrder", Value: 1}, {Key: "createdAt", Value: -1}}}},
		collectionRefsLookup(),
	}
	return r.run(ctx, pipeline)
}

func (r *mongoPhotoRepo) run(ctx context.Context, pipeline mongo.Pipeline) ([]*models.Photo, error) {
	docs, err := aggregateAll[mongoPhoto](ctx, r.store.db.Collection(mongoPhotos), pipeline)
	if err != nil {
		return nil, err
	}

	photos := make([]*models.Photo, 0, len(docs))
	for _, d := range docs {
		photos = append(photos, d.toModel(r.store.assetBaseURL))
	}
	return photos, nil
}

func (r *mongoPhotoRepo) GetAll(ctx context.Context) ([]*models.Photo, error) {
	return r.listing(ctx, bson.M{})
}

func (r *mongoPhotoRepo) GetBySlug(ctx context.Context, slug string) (*models.Photo, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"slug": slug}}},
		{{Key: "$limit", Value: 1}},
		collectionRefsLookup(),
	}
	photos, err := r.run(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, nil
	}
	return photos[0], nil
}

func (r *mongoPhotoRepo) GetByCollectionID(ctx context.Context, collectionID string) ([]*models.Photo, error) {
	return r.listing(ctx, bson.M{"collections": collectionID})
}

func (r *mongoPhotoRepo) GetByCategoryID(ctx context.Context, categoryID string) ([]*models.Photo, error) {
	return r.listing(ctx, bson.M{"categories": categoryID})
}

func (r *mongoPhotoRepo) GetForCollectionAdmin(ctx context.Context, collectionID string) ([]*models.Photo, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"collections": collectionID}}},
		nullsLastStage("displayOrder"),
		{{Key: "$sort", Value: bson.D{{Key: "_orderMissing", Value: 1}, {Key: "displayOrder", Value: 1}, {Key: "title", Value: 1}}}},
	}
	return r.run(ctx, pipeline)
}

// mongoCollectionRepo implements CollectionRepo
type mongoCollectionRepo struct {
	store *MongoStore
}

func (r *mongoCollectionRepo) pipeline(match bson.M) mongo.Pipeline {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, photoCountStages("collections")...)
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         mongoPhotos,
			"localField":   "coverPhotoId",
			"foreignField": "_id",
			"as":           "cover",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"coverImagePath": bson.M{"$arrayElemAt": bson.A{"$cover.imagePath", 0}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"cover": 0}}},
	)
	return pipeline
}

func (r *mongoCollectionRepo) toModel(d *mongoCollection) *models.Collection {
	return &models.Collection{
		ID:            d.ID,
		Title:         d.Title,
		Slug:          d.Slug,
		Description:   d.Description,
		CoverImageURL: assetURL(r.store.assetBaseURL, d.CoverImagePath),
		CoverPhotoID:  d.CoverPhotoID,
		DisplayOrder:  d.DisplayOrder,
		CreatedAt:     d.CreatedAt,
		PhotoCount:    d.PhotoCount,
	}
}

func (r *mongoCollectionRepo) GetAll(ctx context.Context) ([]*models.Collection, error) {
	pipeline := r.pipeline(bson.M{})
	pipeline = append(pipeline,
		nullsLastStage("displayOrder"),
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_orderMissing", Value: 1}, {Key: "displayOrder", Value: 1}, {Key: "title", Value: 1}}}},
	)

	docs, err := aggregateAll[mongoCollection](ctx, r.store.db.Collection(mongoCollections), pipeline)
	if err != nil {
		return nil, err
	}

	collections := make([]*models.Collection, 0, len(docs))
	for _, d := range docs {
		collections = append(collections, r.toModel(d))
	}
	return collections, nil
}

func (r *mongoCollectionRepo) GetBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	docs, err := aggregateAll[mongoCollection](ctx, r.store.db.Collection(mongoCollections), r.pipeline(bson.M{"slug": slug}))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return r.toModel(docs[0]), nil
}

// mongoCategoryRepo implements CategoryRepo
type mongoCategoryRepo struct {
	store *MongoStore
}

func (r *mongoCategoryRepo) query(ctx context.Context, match bson.M) ([]*models.Category, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, photoCountStages("categories")...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "title", Value: 1}}}})

	docs, err := aggregateAll[mongoCategory](ctx, r.store.db.Collection(mongoCategories), pipeline)
	if err != nil {
		return nil, err
	}

	categories := make([]*models.Category, 0, len(docs))
	for _, d := range docs {
		categories = append(categories, &models.Category{
			ID: d.ID, Title: d.Title, Slug: d.Slug, Description: d.Description, PhotoCount: d.PhotoCount,
		})
	}
	return categories, nil
}

func (r *mongoCategoryRepo) GetAll(ctx context.Context) ([]*models.Category, error) {
	return r.query(ctx, bson.M{})
}

func (r *mongoCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	categories, err := r.query(ctx, bson.M{"slug": slug})
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}
	return categories[0], nil
}

// Seeding

func upsert(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", coll.Name(), id, err)
	}
	return nil
}

// SeedCategory upserts a category document
func (s *MongoStore) SeedCategory(ctx context.Context, k *models.Category) error {
	return upsert(ctx, s.db.Collection(mongoCategories), k.ID, &mongoCategory{
		ID: k.ID, Title: k.Title, Slug: k.Slug, Description: k.Description,
	})
}

// SeedCollection upserts a collection document
func (s *MongoStore) SeedCollection(ctx context.Context, c *models.Collection) error {
	createdAt := c.CreatedAt
	if createdAt == nil {
		now := time.Now().UTC()
		createdAt = &now
	}
	return upsert(ctx, s.db.Collection(mongoCollections), c.ID, &mongoCollection{
		ID:           c.ID,
		Title:        c.Title,
		Slug:         c.Slug,
		Description:  c.Description,
		CoverPhotoID: c.CoverPhotoID,
		DisplayOrder: c.DisplayOrder,
		CreatedAt:    createdAt,
	})
}

// SeedPhoto upserts a photo document with its reference arrays
func (s *MongoStore) SeedPhoto(ctx context.Context, p *models.Photo) error {
	doc := &mongoPhoto{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		Description:    p.Description,
		ImagePath:      p.ImagePath,
		Collections:    p.CollectionIDs,
		Categories:     p.CategoryIDs,
		DateTaken:      p.DateTaken,
		CameraSettings: p.CameraSettings,
		DisplayOrder:   p.DisplayOrder,
		CreatedAt:      p.CreatedAt,
	}
	if doc.Collections == nil {
		doc.Collections = []string{}
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if p.Price != nil {
		price, err := primitive.ParseDecimal128(p.Price.String())
		if err != nil {
			return fmt.Errorf("invalid price for photo %s: %w", p.ID, err)
		}
		doc.Price = &price
	}
	return upsert(ctx, s.db.Collection(mongoPhotos), p.ID, doc)
}
