package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	conerrors "github.com/streamwell/connect/errors"
)

// CreateTable creates an on-demand table with a single string hash key.
//
// Errors:
//   - ErrTableAlreadyExists: If a table with this name already exists
func (c *Client) CreateTable(ctx context.Context, table, hashKey string) error {
	if table == "" {
		return conerrors.NewError("createTable", conerrors.ErrInvalidInput).
			WithMessage("table name cannot be empty")
	}
	if hashKey == "" {
		return conerrors.NewError("createTable", conerrors.ErrInvalidInput).
			WithMessage("hash key name cannot be empty")
	}

	_, err := c.api.CreateTable(ctx, &awsdynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String(hashKey),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String(hashKey),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return conerrors.NewError("createTable", convertError(err)).WithBucket(table)
	}

	return nil
}

// DeleteTable deletes a table and all of its items.
//
// Errors:
//   - ErrTableNotFound: If the table doesn't exist
func (c *Client) DeleteTable(ctx context.Context, table string) error {
	_, err := c.api.DeleteTable(ctx, &awsdynamodb.DeleteTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		return conerrors.NewError("deleteTable", convertError(err)).WithBucket(table)
	}
	return nil
}

// TableExists checks whether a table exists.
func (c *Client) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := c.api.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, conerrors.NewError("tableExists", err).WithBucket(table)
	}
	return true, nil
}

// PutItem marshals item through attributevalue and writes it to the table.
// item is any struct or map accepted by attributevalue.MarshalMap.
func (c *Client) PutItem(ctx context.Context, table string, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return conerrors.NewError("putItem", fmt.Errorf("failed to marshal item: %w", err)).WithBucket(table)
	}

	_, err = c.api.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	if err != nil {
		return conerrors.NewError("putItem", convertError(err)).WithBucket(table)
	}

	return nil
}

// GetItem reads the item identified by key into out.
//
// Errors:
//   - ErrObjectNotFound: If no item matches key
func (c *Client) GetItem(ctx context.Context, table string, key, out any) error {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return conerrors.NewError("getItem", fmt.Errorf("failed to marshal key: %w", err)).WithBucket(table)
	}

	result, err := c.api.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       av,
	})
	if err != nil {
		return conerrors.NewError("getItem", convertError(err)).WithBucket(table)
	}
	if len(result.Item) == 0 {
		return conerrors.NewError("getItem", conerrors.ErrObjectNotFound).WithBucket(table)
	}

	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return conerrors.NewError("getItem", fmt.Errorf("failed to unmarshal item: %w", err)).WithBucket(table)
	}

	return nil
}

// DeleteItem removes the item identified by key. Deleting a missing item is
// not an error, matching the provider behavior.
func (c *Client) DeleteItem(ctx context.Context, table string, key any) error {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return conerrors.NewError("deleteItem", fmt.Errorf("failed to marshal key: %w", err)).WithBucket(table)
	}

	_, err = c.api.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       av,
	})
	if err != nil {
		return conerrors.NewError("deleteItem", convertError(err)).WithBucket(table)
	}

	return nil
}

// convertError maps DynamoDB exception types onto the shared sentinels.
func convertError(err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %w", conerrors.ErrTableNotFound, err)
	}
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return fmt.Errorf("%w: %w", conerrors.ErrTableAlreadyExists, err)
	}
	return err
}
