package kv

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

// DynamoDBStore implements ports.KVStore over a single DynamoDB table with
// a "pk" string partition key and a "value" binary attribute, grounded on
// aws_dynamodb_repository.py's single-table key/value shape (item get/put/
// delete by partition key, conditional put for create-only semantics).
type DynamoDBStore struct {
	client    *dynamodb.DynamoDB
	tableName string
}

// NewDynamoDBStore wraps an already-configured DynamoDB client.
func NewDynamoDBStore(client *dynamodb.DynamoDB, tableName string) *DynamoDBStore {
	return &DynamoDBStore{client: client, tableName: tableName}
}

type dynamoItem struct {
	PK    string `dynamodbav:"pk"`
	Value []byte `dynamodbav:"value"`
}

func (s *DynamoDBStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"pk": {S: aws.String(key)},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("getting key %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	var item dynamoItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("decoding item for key %s: %w", key, err)
	}
	return item.Value, true, nil
}

func (s *DynamoDBStore) Create(ctx context.Context, key string, item []byte) (bool, error) {
	av, err := dynamodbattribute.MarshalMap(dynamoItem{PK: key, Value: item})
	if err != nil {
		return false, fmt.Errorf("encoding item for key %s: %w", key, err)
	}

	_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return false, nil
		}
		return false, fmt.Errorf("creating key %s: %w", key, err)
	}
	return true, nil
}

func (s *DynamoDBStore) Put(ctx context.Context, key string, item []byte) error {
	av, err := dynamodbattribute.MarshalMap(dynamoItem{PK: key, Value: item})
	if err != nil {
		return fmt.Errorf("encoding item for key %s: %w", key, err)
	}
	_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, key string) (bool, error) {
	out, err := s.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"pk": {S: aws.String(key)},
		},
		ReturnValues: aws.String(dynamodb.ReturnValueAllOld),
	})
	if err != nil {
		return false, fmt.Errorf("deleting key %s: %w", key, err)
	}
	return len(out.Attributes) > 0, nil
}
