package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions locate the collection served by a Mongo adapter.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	// ConnectTimeout bounds Connect and server selection. Zero means 10s.
	ConnectTimeout time.Duration
}

// Mongo owns a client connection and serves one collection. It is safe
// for concurrent use; the driver pools connections.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens a client and pings the primary before returning.
func Connect(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, classify(errors.Wrap(err, "mongo ping"))
	}

	return NewMongo(client, client.Database(opts.Database).Collection(opts.Collection)), nil
}

// NewMongo wraps an existing collection. Close disconnects client.
func NewMongo(client *mongo.Client, c *mongo.Collection) *Mongo {
	return &Mongo{client: client, collection: c}
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return errors.Wrap(m.client.Disconnect(ctx), "mongo disconnect")
}

func (m *Mongo) EnsureUnique(ctx context.Context, field string) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(field + "_unique"),
	})
	if err != nil {
		return classify(errors.Wrapf(err, "create unique index on %s", field))
	}
	return nil
}

func (m *Mongo) Create(ctx context.Context, doc Document) (string, error) {
	res, err := m.collection.InsertOne(ctx, bson.M(withoutID(doc)))
	if err != nil {
		return "", classify(err)
	}

	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	default:
		return "", errors.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
}

func (m *Mongo) Get(ctx context.Context, id string) (Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return m.findOne(ctx, bson.M{IDField: oid})
}

func (m *Mongo) List(ctx context.Context, limit int) ([]Document, error) {
	opts := options.Find().
		SetLimit(int64(normalizeLimit(limit))).
		SetSort(bson.D{{Key: IDField, Value: 1}})

	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classify(err)
	}

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, classify(err)
	}

	docs := make([]Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, fromBSON(r))
	}
	return docs, nil
}

func (m *Mongo) Update(ctx context.Context, id string, partial Document) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrInvalidID
	}

	set := withoutID(partial)
	if len(set) == 0 {
		return false, nil
	}

	res, err := m.collection.UpdateOne(ctx, bson.M{IDField: oid}, bson.M{"$set": bson.M(set)})
	if err != nil {
		return false, classify(err)
	}
	return res.ModifiedCount > 0, nil
}

func (m *Mongo) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrInvalidID
	}

	res, err := m.collection.DeleteOne(ctx, bson.M{IDField: oid})
	if err != nil {
		return false, classify(err)
	}
	return res.DeletedCount > 0, nil
}

func (m *Mongo) FindOneBy(ctx context.Context, field string, value interface{}) (Document, error) {
	if s, ok := value.(string); ok && field == IDField {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, ErrInvalidID
		}
		value = oid
	}
	return m.findOne(ctx, bson.M{field: value})
}

func (m *Mongo) findOne(ctx context.Context, filter bson.M) (Document, error) {
	var raw bson.M
	err := m.collection.FindOne(ctx, filter).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return fromBSON(raw), nil
}

// classify maps driver failures onto the package sentinels. Errors that
// are neither duplicates nor connectivity problems pass through.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(ErrDuplicate, err.Error())
	case mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected):
		return unavailable(err)
	default:
		return err
	}
}

func fromBSON(m bson.M) Document {
	d := make(Document, len(m))
	for k, v := range m {
		d[k] = normalize(v)
	}
	return d
}

// normalize turns driver-specific values into plain Go values.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.M:
		return map[string]interface{}(fromBSON(t))
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case primitive.A:
		a := make([]interface{}, len(t))
		for i, e := range t {
			a[i] = normalize(e)
		}
		return a
	default:
		return v
	}
}
