package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const profilesCollection = "profiles"

func NewMongoClient(ctx context.Context, cfg config.Config, log logger.Logger) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("can not connect MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB failed: %w", err)
	}
	log.Info("Connect MongoDB successfully.", zap.String("database", cfg.Mongo.Database))
	return client, nil
}

type socialDocument struct {
	YouTube   string `bson:"youtube,omitempty"`
	Facebook  string `bson:"facebook,omitempty"`
	Twitter   string `bson:"twitter,omitempty"`
	Instagram string `bson:"instagram,omitempty"`
	LinkedIn  string `bson:"linkedin,omitempty"`
}

type experienceDocument struct {
	ID          string     `bson:"id"`
	Title       string     `bson:"title"`
	Company     string     `bson:"company"`
	Location    string     `bson:"location,omitempty"`
	From        time.Time  `bson:"from"`
	To          *time.Time `bson:"to,omitempty"`
	Current     bool       `bson:"current"`
	Description string     `bson:"description,omitempty"`
}

type educationDocument struct {
	ID           string     `bson:"id"`
	School       string     `bson:"school"`
	Degree       string     `bson:"degree"`
	FieldOfStudy string     `bson:"fieldOfStudy"`
	From         time.Time  `bson:"from"`
	To           *time.Time `bson:"to,omitempty"`
	Current      bool       `bson:"current"`
	Description  string     `bson:"description,omitempty"`
}

type profileDocument struct {
	Owner          string               `bson:"owner"`
	Company        string               `bson:"company,omitempty"`
	Website        string               `bson:"website,omitempty"`
	Location       string               `bson:"location,omitempty"`
	Bio            string               `bson:"bio,omitempty"`
	Status         string               `bson:"status,omitempty"`
	GitHubUsername string               `bson:"githubUsername,omitempty"`
	Skills         []string             `bson:"skills"`
	Social         socialDocument       `bson:"social"`
	Experience     []experienceDocument `bson:"experience"`
	Education      []educationDocument  `bson:"education"`
	Version        int64                `bson:"version"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func toProfileDocument(p *profile.Profile, version int64) profileDocument {
	doc := profileDocument{
		Owner:          p.OwnerID.String(),
		Company:        p.Company,
		Website:        p.Website,
		Location:       p.Location,
		Bio:            p.Bio,
		Status:         p.Status,
		GitHubUsername: p.GitHubUsername,
		Skills:         nonNil(p.Skills),
		Social:         socialDocument(p.Social),
		Experience:     make([]experienceDocument, len(p.Experience)),
		Education:      make([]educationDocument, len(p.Education)),
		Version:        version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for i, e := range p.Experience {
		doc.Experience[i] = experienceDocument{
			ID: e.ID.String(), Title: e.Title, Company: e.Company, Location: e.Location,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		}
	}
	for i, e := range p.Education {
		doc.Education[i] = educationDocument{
			ID: e.ID.String(), School: e.School, Degree: e.Degree, FieldOfStudy: e.FieldOfStudy,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		}
	}
	return doc
}

func (d profileDocument) toDomain() (*profile.Profile, error) {
	owner, err := uuid.Parse(d.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner %q: %w", d.Owner, err)
	}
	p := &profile.Profile{
		OwnerID:        owner,
		Company:        d.Company,
		Website:        d.Website,
		Location:       d.Location,
		Bio:            d.Bio,
		Status:         d.Status,
		GitHubUsername: d.GitHubUsername,
		Skills:         nonNil(d.Skills),
		Social:         profile.Social(d.Social),
		Experience:     make([]profile.Experience, len(d.Experience)),
		Education:      make([]profile.Education, len(d.Education)),
		Version:        d.Version,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	for i, e := range d.Experience {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid experience id %q: %w", e.ID, err)
		}
		p.Experience[i] = profile.Experience{
			ID: id, Title: e.Title, Company: e.Company, Location: e.Location,
			From: e.From.UTC(), To: utcPtr(e.To), Current: e.Current, Description: e.Description,
		}
	}
	for i, e := range d.Education {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid education id %q: %w", e.ID, err)
		}
		p.Education[i] = profile.Education{
			ID: id, School: e.School, Degree: e.Degree, FieldOfStudy: e.FieldOfStudy,
			From: e.From.UTC(), To: utcPtr(e.To), Current: e.Current, Description: e.Description,
		}
	}
	return p, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

type mongoProfileRepo struct {
	coll   *mongo.Collection
	logger logger.Logger
}

// NewMongoProfileRepo ensures the unique owner index before returning.
func NewMongoProfileRepo(ctx context.Context, db *mongo.Database, log logger.Logger) (profile.Repository, error) {
	coll := db.Collection(profilesCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_owner"),
	})
	if err != nil {
		return nil, fmt.Errorf("create profiles owner index failed: %w", err)
	}
	return &mongoProfileRepo{coll: coll, logger: log}, nil
}

func (r *mongoProfileRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*profile.Profile, error) {
	var doc profileDocument
	err := r.coll.FindOne(ctx, bson.M{"owner": ownerID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, apperror.NewInternal("failed to find profile document", err)
	}
	p, err := doc.toDomain()
	if err != nil {
		return nil, apperror.NewInternal("corrupt profile document", err)
	}
	return p, nil
}

func (r *mongoProfileRepo) FindAll(ctx context.Context) ([]*profile.Profile, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, apperror.NewInternal("failed to query profile documents", err)
	}
	var docs []profileDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperror.NewInternal("failed to decode profile documents", err)
	}

	profiles := make([]*profile.Profile, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toDomain()
		if err != nil {
			r.logger.Warn("Skipping corrupt profile document", zap.String("owner", doc.Owner), zap.Error(err))
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (r *mongoProfileRepo) Insert(ctx context.Context, p *profile.Profile) error {
	_, err := r.coll.InsertOne(ctx, toProfileDocument(p, 1))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return profile.ErrVersionConflict
		}
		return apperror.NewInternal("failed to insert profile document", err)
	}
	p.Version = 1
	return nil
}

func (r *mongoProfileRepo) Replace(ctx context.Context, p *profile.Profile) error {
	filter := bson.M{"owner": p.OwnerID.String(), "version": p.Version}
	res, err := r.coll.ReplaceOne(ctx, filter, toProfileDocument(p, p.Version+1))
	if err != nil {
		return apperror.NewInternal("failed to replace profile document", err)
	}
	if res.MatchedCount == 0 {
		return profile.ErrVersionConflict
	}
	p.Version++
	return nil
}

func (r *mongoProfileRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"owner": ownerID.String()}); err != nil {
		return apperror.NewInternal("failed to delete profile document", err)
	}
	return nil
}
