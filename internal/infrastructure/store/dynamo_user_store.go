package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/storefront/internal/domain/user"
)

const (
	userKeyPrefix  = "USER#"
	emailKeyPrefix = "EMAIL#"
)

// DynamoAPI is the subset of the DynamoDB client the user store needs
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoUserStore implements user.Repository on a single DynamoDB table.
// Each user is stored as a USER#<id> item plus an EMAIL#<email> item that
// reserves the address.
type DynamoUserStore struct {
	client    DynamoAPI
	tableName string
}

// dynamoUser represents the DynamoDB item structure
type dynamoUser struct {
	PK           string `dynamodbav:"pk"`
	ID           string `dynamodbav:"id"`
	Email        string `dynamodbav:"email"`
	PasswordHash string `dynamodbav:"password_hash,omitempty"`
	Name         string `dynamodbav:"name,omitempty"`
	CreatedAt    string `dynamodbav:"created_at,omitempty"`
}

func NewDynamoUserStore(client DynamoAPI, tableName string) *DynamoUserStore {
	return &DynamoUserStore{
		client:    client,
		tableName: tableName,
	}
}

// Create writes both items in one transaction so an email is never claimed twice
func (s *DynamoUserStore) Create(ctx context.Context, u *user.User) error {
	userItem, err := attributevalue.MarshalMap(dynamoUser{
		PK:           userKeyPrefix + u.ID,
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	emailItem, err := attributevalue.MarshalMap(dynamoUser{
		PK:    emailKeyPrefix + u.Email,
		ID:    u.ID,
		Email: u.Email,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email reservation: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(s.tableName),
				Item:                emailItem,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(s.tableName),
				Item:                userItem,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			}},
		},
	})
	if err != nil {
		var cancelled *types.TransactionCanceledException
		if errors.As(err, &cancelled) && emailConditionFailed(cancelled) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

func (s *DynamoUserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	item, err := s.get(ctx, userKeyPrefix+id)
	if err != nil {
		return nil, err
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	return &user.User{
		ID:           item.ID,
		Email:        item.Email,
		PasswordHash: item.PasswordHash,
		Name:         item.Name,
		CreatedAt:    createdAt,
	}, nil
}

func (s *DynamoUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	reservation, err := s.get(ctx, emailKeyPrefix+email)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, reservation.ID)
}

func (s *DynamoUserStore) get(ctx context.Context, pk string) (*dynamoUser, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: pk},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if len(result.Item) == 0 {
		return nil, user.ErrUserNotFound
	}

	var item dynamoUser
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &item, nil
}

// emailConditionFailed reports whether the email reservation, the first
// transaction item, was the one rejected.
func emailConditionFailed(e *types.TransactionCanceledException) bool {
	if len(e.CancellationReasons) == 0 {
		return false
	}
	return aws.ToString(e.CancellationReasons[0].Code) == "ConditionalCheckFailed"
}
