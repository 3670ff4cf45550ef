package user

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const usersCollection = "users"

type userDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	FullName        string             `bson:"nombreCompleto"`
	PaternalSurname string             `bson:"apellidoPaterno"`
	MaternalSurname string             `bson:"apellidoMaterno"`
	Email           string             `bson:"correo"`
	Password        string             `bson:"contrasena,omitempty"`
	Role            string             `bson:"rol"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d userDocument) toUser() User {
	return User{
		ID:              d.ID.Hex(),
		FullName:        d.FullName,
		PaternalSurname: d.PaternalSurname,
		MaternalSurname: d.MaternalSurname,
		Email:           d.Email,
		PasswordHash:    d.Password,
		Role:            d.Role,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type MongoRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{coll: db.Collection(usersCollection), timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// EnsureIndexes creates the unique email index. It is idempotent.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.Indexes().CreateOne(timeoutCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "correo", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("correo_unique"),
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	doc := userDocument{
		FullName:        u.FullName,
		PaternalSurname: u.PaternalSurname,
		MaternalSurname: u.MaternalSurname,
		Email:           u.Email,
		Password:        u.PasswordHash,
		Role:            u.Role,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.InsertOne(timeoutCtx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("unexpected inserted id type")
	}
	u.ID = oid.Hex()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(timeoutCtx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return doc.toUser(), nil
}

func (r *MongoRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, bson.M{"correo": email})
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepo) List(ctx context.Context) ([]User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"contrasena": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(timeoutCtx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []userDocument
	if err := cursor.All(timeoutCtx, &docs); err != nil {
		return nil, err
	}

	users := make([]User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toUser())
	}
	return users, nil
}

func (r *MongoRepo) Update(ctx context.Context, id string, changes Changes) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if changes.FullName != nil {
		set["nombreCompleto"] = *changes.FullName
	}
	if changes.PaternalSurname != nil {
		set["apellidoPaterno"] = *changes.PaternalSurname
	}
	if changes.MaternalSurname != nil {
		set["apellidoMaterno"] = *changes.MaternalSurname
	}
	if changes.Email != nil {
		set["correo"] = *changes.Email
	}
	if changes.PasswordHash != nil {
		set["contrasena"] = *changes.PasswordHash
	}
	if changes.Role != nil {
		set["rol"] = *changes.Role
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	// A single $set is atomic per document: the last committed write wins.
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = r.coll.FindOneAndUpdate(timeoutCtx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return doc.toUser(), nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteOne(timeoutCtx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.coll.Database().Client().Ping(timeoutCtx, readpref.Primary())
}
