package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/userrole/auth-api/internal/core/domain"
)

type MongoUserRepository struct {
	coll  *mongo.Collection
	roles *MongoRoleRepository
	ids   *sequence
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		coll:  db.Collection(collectionUsers),
		roles: NewRoleRepository(db),
		ids:   newSequence(db, collectionUsers),
	}
}

type mongoUser struct {
	ID           int64  `bson:"_id"`
	Username     string `bson:"username"`
	PasswordHash string `bson:"password_hash"`
	RoleID       int64  `bson:"role_id"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func (m mongoUser) toDomain(role *domain.Role) *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		RoleID:       m.RoleID,
		Role:         role,
		CreatedAt:    unixToTime(m.CreatedAt),
		UpdatedAt:    unixToTime(m.UpdatedAt),
	}
}

// resolve attaches the referenced role to a decoded user.
func (r *MongoUserRepository) resolve(ctx context.Context, mu mongoUser) (*domain.User, error) {
	role, err := r.roles.FindByID(ctx, mu.RoleID)
	if err != nil {
		return nil, fmt.Errorf("resolve role %d for user %d: %w", mu.RoleID, mu.ID, err)
	}
	return mu.toDomain(role), nil
}

// Create pins the role before inserting, standing in for the foreign key
// the relational store enforces. A failed insert releases the pin.
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	role, err := r.roles.pin(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}

	created, err := r.insert(ctx, user)
	if err != nil {
		_ = r.roles.unpin(ctx, user.RoleID)
		return nil, err
	}
	return created.toDomain(role), nil
}

func (r *MongoUserRepository) insert(ctx context.Context, user *domain.User) (mongoUser, error) {
	id, err := r.ids.next(ctx)
	if err != nil {
		return mongoUser{}, err
	}

	now := time.Now().Unix()
	doc := mongoUser{
		ID:           id,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		RoleID:       user.RoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return mongoUser{}, domain.ErrUserExists
		}
		return mongoUser{}, fmt.Errorf("insert user: %w", err)
	}
	return doc, nil
}

func (r *MongoUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	roles := make(map[int64]*domain.Role)
	users := make([]*domain.User, 0, len(docs))
	for _, mu := range docs {
		role, ok := roles[mu.RoleID]
		if !ok {
			if role, err = r.roles.FindByID(ctx, mu.RoleID); err != nil {
				return nil, fmt.Errorf("resolve role %d: %w", mu.RoleID, err)
			}
			roles[mu.RoleID] = role
		}
		users = append(users, mu.toDomain(role))
	}
	return users, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return r.resolve(ctx, mu)
}

// Update applies the non-nil fields of update. A role change pins the new
// role first and releases the old one once the write has landed.
func (r *MongoUserRepository) Update(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	set := bson.M{"updated_at": time.Now().Unix()}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.PasswordHash != nil {
		set["password_hash"] = *update.PasswordHash
	}
	if update.RoleID != nil {
		if _, err := r.roles.pin(ctx, *update.RoleID); err != nil {
			return nil, err
		}
		set["role_id"] = *update.RoleID
	}

	var before mongoUser
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if update.RoleID != nil {
			_ = r.roles.unpin(ctx, *update.RoleID)
		}
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if update.RoleID != nil {
		if err := r.roles.unpin(ctx, before.RoleID); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *MongoUserRepository) Delete(ctx context.Context, id int64) error {
	var deleted mongoUser
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&deleted); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return r.roles.unpin(ctx, deleted.RoleID)
}
