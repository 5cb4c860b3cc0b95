package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"cloud-lab/internal/domain"
)

type fakeDynamo struct {
	putErr        error
	scanOut       *dynamodb.ScanOutput
	scanErr       error
	lastPutInput  *dynamodb.PutItemInput
	lastScanInput *dynamodb.ScanInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.lastScanInput = in
	return f.scanOut, f.scanErr
}

func makeItem(id, content string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"message_id": &types.AttributeValueMemberS{Value: id},
		"content":    &types.AttributeValueMemberS{Value: content},
	}
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "Messages")
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "Messages")
	require.ErrorContains(t, err, "must not be nil")

	_, err = New(&fakeDynamo{}, "  ")
	require.ErrorContains(t, err, "table name")
}

func TestPutMessage_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.PutMessage(context.Background(), domain.Message{MessageID: "id-1", Content: "hi"})
	require.NoError(t, err)
	require.NotNil(t, db.lastPutInput)
	require.Equal(t, "Messages", aws.ToString(db.lastPutInput.TableName))
	require.Nil(t, db.lastPutInput.ConditionExpression)
	require.Equal(t, makeItem("id-1", "hi"), db.lastPutInput.Item)
}

func TestPutMessage_EmptyContentAllowed(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	require.NoError(t, c.PutMessage(context.Background(), domain.Message{MessageID: "id-1"}))
	require.Contains(t, db.lastPutInput.Item, "content")
}

func TestPutMessage_RequiresID(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.PutMessage(context.Background(), domain.Message{Content: "hi"})
	require.Error(t, err)
	require.Nil(t, db.lastPutInput)
}

func TestPutMessage_Error(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("throttled")}
	c := mustNewClient(t, db)

	err := c.PutMessage(context.Background(), domain.Message{MessageID: "id-1", Content: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "PutMessage")
	require.Contains(t, err.Error(), "throttled")
}

func TestScanMessages_PreservesBackendOrder(t *testing.T) {
	db := &fakeDynamo{scanOut: &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
		makeItem("b", "second"),
		makeItem("a", "first"),
	}}}
	c := mustNewClient(t, db)

	msgs, err := c.ScanMessages(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Message{
		{MessageID: "b", Content: "second"},
		{MessageID: "a", Content: "first"},
	}, msgs)
	require.Equal(t, "Messages", aws.ToString(db.lastScanInput.TableName))
	require.Nil(t, db.lastScanInput.Limit)
	require.Nil(t, db.lastScanInput.FilterExpression)
}

func TestScanMessages_Empty(t *testing.T) {
	db := &fakeDynamo{scanOut: &dynamodb.ScanOutput{}}
	c := mustNewClient(t, db)

	msgs, err := c.ScanMessages(context.Background())
	require.NoError(t, err)
	require.NotNil(t, msgs)
	require.Empty(t, msgs)
}

func TestScanMessages_Error(t *testing.T) {
	db := &fakeDynamo{scanErr: errors.New("boom")}
	c := mustNewClient(t, db)

	_, err := c.ScanMessages(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "ScanMessages")
}

func TestScanMessages_MalformedItem(t *testing.T) {
	db := &fakeDynamo{scanOut: &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
		{"message_id": &types.AttributeValueMemberN{Value: "12"}, "content": &types.AttributeValueMemberBOOL{Value: true}},
	}}}
	c := mustNewClient(t, db)

	_, err := c.ScanMessages(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")
}
