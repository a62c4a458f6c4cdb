package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/servimarket/session-service/internal/core/domain"
)

const identityCollection = "identities"

// IdentityRepository is the MongoDB-backed identity catalog.
type IdentityRepository struct {
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{coll: db.Collection(identityCollection)}
}

type mongoIdentity struct {
	ID           string            `bson:"_id"`
	Email        string            `bson:"email"`
	DisplayName  string            `bson:"display_name"`
	Role         string            `bson:"role"`
	Profile      map[string]string `bson:"profile"`
	PasswordHash string            `bson:"password_hash,omitempty"`
	CreatedAt    int64             `bson:"created_at"`
	UpdatedAt    int64             `bson:"updated_at"`
}

func toDocument(a *domain.Account) mongoIdentity {
	return mongoIdentity{
		ID:           a.ID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		Role:         a.Role.String(),
		Profile:      a.Profile.Clone(),
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt.Unix(),
		UpdatedAt:    a.UpdatedAt.Unix(),
	}
}

func (d mongoIdentity) toAccount() *domain.Account {
	return &domain.Account{
		Identity: domain.Identity{
			ID:          d.ID,
			Email:       d.Email,
			DisplayName: d.DisplayName,
			Role:        domain.Role(d.Role),
			Profile:     domain.Profile(d.Profile).Clone(),
		},
		PasswordHash: d.PasswordHash,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}
}

// FindByEmail looks up an account by its exact, case-sensitive email.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoIdentity
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return doc.toAccount(), nil
}

// Append inserts a new account. The unique email index turns races into
// domain.ErrEmailAlreadyRegistered.
func (r *IdentityRepository) Append(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toDocument(account)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// UpdateProfile replaces the stored profile of the account owning email.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, email string, profile domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"profile":    map[string]string(profile.Clone()),
			"updated_at": time.Now().UTC().Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// Seed inserts accounts that are not present yet, matching on email.
func (r *IdentityRepository) Seed(ctx context.Context, accounts []*domain.Account) error {
	for _, a := range accounts {
		doc := toDocument(a)
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"email": a.Email},
			bson.M{"$setOnInsert": doc},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed identity %s: %w", a.Email, err)
		}
	}
	return nil
}

// EnsureIndexes creates the unique email index on the identities collection.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
