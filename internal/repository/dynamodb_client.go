package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"cloud-lab/internal/domain"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ReadWriter defines the message table operations consumed by the message service.
type ReadWriter interface {
	PutMessage(ctx context.Context, msg domain.Message) error
	ScanMessages(ctx context.Context) ([]domain.Message, error)
}

var _ ReadWriter = (*Client)(nil)

// Client wraps a DynamoDB table of messages keyed by message_id.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// PutMessage writes msg unconditionally; an existing item with the same id is replaced.
func (c *Client) PutMessage(ctx context.Context, msg domain.Message) error {
	if msg.MessageID == "" {
		return errors.New("repository: PutMessage: message_id is required")
	}

	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return fmt.Errorf("repository: PutMessage marshal: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: PutMessage: %w", err)
	}
	return nil
}

// ScanMessages returns the items of a single Scan call in the order the
// table yields them. Results past the first response page are not fetched.
func (c *Client) ScanMessages(ctx context.Context) ([]domain.Message, error) {
	out, err := c.api.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(c.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ScanMessages: %w", err)
	}

	msgs := make([]domain.Message, 0)
	if out == nil || len(out.Items) == 0 {
		return msgs, nil
	}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &msgs); err != nil {
		return nil, fmt.Errorf("repository: ScanMessages unmarshal: %w", err)
	}
	return msgs, nil
}
