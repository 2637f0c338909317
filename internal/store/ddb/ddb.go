// Package ddb implements a DynamoDB-backed snapshot store. The table uses the
// pool ID as its partition key.
package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"unstakepool/internal/store"
)

// Config holds the DynamoDB connection settings. AccessKey and SecretKey are
// optional; when empty the default AWS credential chain is used.
type Config struct {
	Region    string
	TableName string
	AccessKey string
	SecretKey string
}

// Store is a SnapshotStore backed by a DynamoDB table.
type Store struct {
	client    *sdk.Client
	tableName string
}

// New creates a DynamoDB snapshot store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if cfg.TableName == "" {
		return nil, fmt.Errorf("table name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &Store{
		client:    sdk.NewFromConfig(awsCfg),
		tableName: cfg.TableName,
	}, nil
}

// Put stores or replaces a record.
func (s *Store) Put(ctx context.Context, record store.Record) error {
	if record.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem error: %w", err)
	}
	return nil
}

// GetOne returns the record with the given ID, or store.ErrNotFound.
func (s *Store) GetOne(ctx context.Context, id string) (*store.Record, error) {
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       recordKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("record %q: %w", id, store.ErrNotFound)
	}

	record := new(store.Record)
	if err := attributevalue.UnmarshalMap(out.Item, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return record, nil
}

// List scans the table and returns every stored record.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	var records []store.Record

	paginator := sdk.NewScanPaginator(s.client, &sdk.ScanInput{
		TableName: aws.String(s.tableName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Scan error: %w", err)
		}

		var pageRecords []store.Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageRecords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal records: %w", err)
		}
		records = append(records, pageRecords...)
	}

	return records, nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       recordKey(id),
	})
	if err != nil {
		return fmt.Errorf("DeleteItem error: %w", err)
	}
	return nil
}

func recordKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ID": &types.AttributeValueMemberS{Value: id},
	}
}
