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

type MongoRoleRepository struct {
	coll  *mongo.Collection
	users *mongo.Collection
	ids   *sequence
}

func NewRoleRepository(db *mongo.Database) *MongoRoleRepository {
	return &MongoRoleRepository{
		coll:  db.Collection(collectionRoles),
		users: db.Collection(collectionUsers),
		ids:   newSequence(db, collectionRoles),
	}
}

// mongoRole is the stored role. UserCount is the number of users holding
// the role; Delete only removes a role whose count is zero.
type mongoRole struct {
	ID        int64  `bson:"_id"`
	Name      string `bson:"name"`
	UserCount int64  `bson:"user_count"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (m mongoRole) toDomain() *domain.Role {
	return &domain.Role{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: unixToTime(m.CreatedAt),
		UpdatedAt: unixToTime(m.UpdatedAt),
	}
}

func (r *MongoRoleRepository) Create(ctx context.Context, name string) (*domain.Role, error) {
	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	doc := mongoRole{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoRoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cur.Close(ctx)

	roles := make([]*domain.Role, 0)
	for cur.Next(ctx) {
		var mr mongoRole
		if err := cur.Decode(&mr); err != nil {
			return nil, fmt.Errorf("decode role: %w", err)
		}
		roles = append(roles, mr.toDomain())
	}
	return roles, cur.Err()
}

func (r *MongoRoleRepository) FindByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *MongoRoleRepository) findOne(ctx context.Context, filter bson.M) (*domain.Role, error) {
	var mr mongoRole
	if err := r.coll.FindOne(ctx, filter).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return mr.toDomain(), nil
}

func (r *MongoRoleRepository) Update(ctx context.Context, id int64, name string) (*domain.Role, error) {
	var mr mongoRole
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().Unix()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mr)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrRoleNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	return mr.toDomain(), nil
}

// Delete refuses to remove a role that users still reference. Mongo has no
// foreign keys: the delete is conditional on user_count being zero, which
// user writes raise before they land. The role_id count covers documents
// written before the counter existed.
func (r *MongoRoleRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.users.CountDocuments(ctx, bson.M{"role_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count role users: %w", err)
	}
	if n > 0 {
		return domain.ErrRoleInUse
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{
		"_id":        id,
		"user_count": bson.M{"$in": bson.A{int64(0), nil}},
	})
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if res.DeletedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrRoleInUse
	}
	return nil
}

// pin adds one holder to the role, failing with domain.ErrInvalidRole when
// the role does not exist.
func (r *MongoRoleRepository) pin(ctx context.Context, id int64) (*domain.Role, error) {
	var mr mongoRole
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"user_count": int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidRole
		}
		return nil, fmt.Errorf("pin role %d: %w", id, err)
	}
	return mr.toDomain(), nil
}

// unpin releases one holder. The count never drops below zero.
func (r *MongoRoleRepository) unpin(ctx context.Context, id int64) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"user_count": int64(-1)}},
	)
	if err != nil {
		return fmt.Errorf("unpin role %d: %w", id, err)
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
