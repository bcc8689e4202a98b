package main

import (
	"context"
	"database/sql"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/lib/pq"

	"github.com/liamcoop/wardline/internal/config"
	"github.com/liamcoop/wardline/internal/logger"
	"github.com/liamcoop/wardline/requests"
)

// openBackend connects the request store selected by STORE_BACKEND
func openBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return Backend{}, fmt.Errorf("failed to open database: %w", err)
		}

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return Backend{}, fmt.Errorf("failed to ping database: %w", err)
		}

		logger.Info("Using postgres request store")
		return Backend{Store: requests.NewPostgresRequestStore(db), DB: db}, nil

	case config.StoreDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return Backend{}, fmt.Errorf("failed to load AWS config: %w", err)
		}

		logger.Info("Using dynamodb request store", "table", cfg.DynamoDBTable, "region", awsCfg.Region)
		return Backend{Store: requests.NewDynamoDBRequestStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable)}, nil

	default:
		logger.Info("Using in-memory request store; requests are lost on restart")
		return Backend{Store: requests.NewInMemoryRequestStore()}, nil
	}
}
