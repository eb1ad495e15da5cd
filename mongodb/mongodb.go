package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	conerrors "github.com/streamwell/connect/errors"
)

// clientConfig holds the configuration assembled from Option values.
type clientConfig struct {
	appName string
}

// Option configures the MongoDB client during construction.
type Option func(*clientConfig)

// WithAppName sets the application name reported to the server.
func WithAppName(name string) Option {
	return func(c *clientConfig) {
		c.appName = name
	}
}

// Client is a MongoDB connector handle bound to one database. It is safe
// for concurrent use.
type Client struct {
	mc *mongo.Client
	db *mongo.Database
}

// Connect dials the MongoDB deployment at uri and verifies the connection
// with a ping against the primary.
func Connect(ctx context.Context, uri, database string, opts ...Option) (*Client, error) {
	if uri == "" {
		return nil, conerrors.NewError("connect", conerrors.ErrInvalidInput).
			WithMessage("connection URI cannot be empty")
	}
	if database == "" {
		return nil, conerrors.NewError("connect", conerrors.ErrInvalidInput).
			WithMessage("database name cannot be empty")
	}

	cfg := &clientConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	clientOpts := options.Client().ApplyURI(uri)
	if cfg.appName != "" {
		clientOpts = clientOpts.SetAppName(cfg.appName)
	}

	mc, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		_ = mc.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Client{
		mc: mc,
		db: mc.Database(database),
	}, nil
}

// Close disconnects from the deployment.
func (c *Client) Close(ctx context.Context) error {
	if err := c.mc.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// Database returns the underlying database handle for operations this
// connector does not wrap.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// InsertOne inserts a document and returns its generated ID.
func (c *Client) InsertOne(ctx context.Context, collection string, document any) (any, error) {
	result, err := c.db.Collection(collection).InsertOne(ctx, document)
	if err != nil {
		return nil, conerrors.NewError("insertOne", err).WithBucket(collection)
	}
	return result.InsertedID, nil
}

// FindOne reads the first document matching filter into out.
//
// Errors:
//   - ErrObjectNotFound: If no document matches filter
func (c *Client) FindOne(ctx context.Context, collection string, filter, out any) error {
	err := c.db.Collection(collection).FindOne(ctx, filter).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return conerrors.NewError("findOne", fmt.Errorf("%w: %w", conerrors.ErrObjectNotFound, err)).
				WithBucket(collection)
		}
		return conerrors.NewError("findOne", err).WithBucket(collection)
	}
	return nil
}

// UpdateOne applies update to the first document matching filter and
// returns the number of modified documents (0 or 1).
func (c *Client) UpdateOne(ctx context.Context, collection string, filter, update any) (int64, error) {
	result, err := c.db.Collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, conerrors.NewError("updateOne", err).WithBucket(collection)
	}
	return result.ModifiedCount, nil
}

// DeleteOne removes the first document matching filter and returns the
// number of deleted documents (0 or 1).
func (c *Client) DeleteOne(ctx context.Context, collection string, filter any) (int64, error) {
	result, err := c.db.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return 0, conerrors.NewError("deleteOne", err).WithBucket(collection)
	}
	return result.DeletedCount, nil
}
