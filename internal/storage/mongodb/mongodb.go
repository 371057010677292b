// Package mongodb implements the primary backend: a thin adapter over
// the document database. Whether it actually serves a request is the
// backend selector's call, made per request via Ping.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/storage"
)

type Store struct {
	client       *mongo.Client
	users        *mongo.Collection
	transactions *mongo.Collection
}

type userDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	Image     string        `bson:"image,omitempty"`
	CreatedAt time.Time     `bson:"created_at"`
}

type transactionDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	Type      string        `bson:"type"`
	Amount    float64       `bson:"amount"`
	Category  string        `bson:"category,omitempty"`
	Note      string        `bson:"note,omitempty"`
	CreatedAt time.Time     `bson:"created_at"`
}

// New builds the adapter. Connect does not dial; reachability is only
// known once Ping runs, which is exactly what the selector wants.
func New(uri, dbName string, probeTimeout time.Duration) (*Store, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(probeTimeout))
	if err != nil {
		return nil, fmt.Errorf("configure mongo client: %w", err)
	}

	db := client.Database(dbName)
	return &Store{
		client:       client,
		users:        db.Collection("users"),
		transactions: db.Collection("transactions"),
	}, nil
}

// Ping is the liveness probe used by the backend selector.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	doc := userDoc{
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Image:     u.Image,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return core.User{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toUser(), nil
}

func (s *Store) UserByID(ctx context.Context, id string) (core.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return core.User{}, storage.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) UserByName(ctx context.Context, name string) (core.User, error) {
	return s.findUser(ctx, bson.M{"name": name})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (core.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, storage.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.toUser(), nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd core.UserUpdate) (core.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return core.User{}, storage.ErrNotFound
	}

	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	if len(set) > 0 {
		res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
		if err != nil {
			return core.User{}, fmt.Errorf("update user: %w", err)
		}
		if res.MatchedCount == 0 {
			return core.User{}, storage.ErrNotFound
		}
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	owner, err := bson.ObjectIDFromHex(t.UserID)
	if err != nil {
		return core.Transaction{}, storage.ErrNotFound
	}

	doc := transactionDoc{
		UserID:    owner,
		Type:      string(t.Type),
		Amount:    t.Amount,
		Category:  t.Category,
		Note:      t.Note,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.transactions.InsertOne(ctx, doc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return core.Transaction{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toTransaction(), nil
}

func (s *Store) Transactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	owner, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	cursor, err := s.transactions.Find(ctx,
		bson.M{"user_id": owner},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toTransaction())
	}
	return out, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrInvalidID
	}
	owner, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrNotFound
	}

	// Ownership is part of the filter: a foreign id deletes nothing
	// and reports not found.
	res, err := s.transactions.DeleteOne(ctx, bson.M{"_id": oid, "user_id": owner})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Summary(ctx context.Context, userID string) (core.Summary, error) {
	owner, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return core.Summary{}, storage.ErrNotFound
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "user_id", Value: owner}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}
	cursor, err := s.transactions.Aggregate(ctx, pipeline)
	if err != nil {
		return core.Summary{}, fmt.Errorf("aggregate summary: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Type  string  `bson:"_id"`
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return core.Summary{}, fmt.Errorf("decode summary: %w", err)
	}

	var sum core.Summary
	for _, row := range rows {
		switch core.TransactionType(row.Type) {
		case core.Income:
			sum.Income = row.Total
		case core.Expense:
			sum.Expense = row.Total
		}
	}
	sum.Balance = sum.Income - sum.Expense
	return sum, nil
}

func (d userDoc) toUser() core.User {
	return core.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Image:        d.Image,
		CreatedAt:    d.CreatedAt,
	}
}

func (d transactionDoc) toTransaction() core.Transaction {
	return core.Transaction{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Type:      core.TransactionType(d.Type),
		Amount:    d.Amount,
		Category:  d.Category,
		Note:      d.Note,
		CreatedAt: d.CreatedAt,
	}
}
