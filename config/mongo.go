package config

import (
	"context"
	"crypto/tls"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDB = "mockmate"

var MongoClient *mongo.Client

// InitMongo connects to MONGO_URI and verifies the connection with a ping.
func InitMongo() error {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		return errors.New("MONGO_URI environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(20 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetMaxPoolSize(20).
		SetMinPoolSize(1)

	// Some Atlas clusters reject newer TLS defaults.
	if os.Getenv("MONGO_FORCE_TLS_CONFIG") == "true" {
		clientOpts = clientOpts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: os.Getenv("MONGO_INSECURE_TLS") == "true",
			MinVersion:         tls.VersionTLS12,
			MaxVersion:         tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return err
	}

	MongoClient = client
	return nil
}

// MongoDatabaseName is MONGO_DB, defaulting to "mockmate".
func MongoDatabaseName() string {
	if v := os.Getenv("MONGO_DB"); v != "" {
		return v
	}
	return defaultMongoDB
}

func MongoDatabase() (*mongo.Database, error) {
	if MongoClient == nil {
		return nil, errors.New("MongoClient is nil; call InitMongo() first")
	}
	return MongoClient.Database(MongoDatabaseName()), nil
}
