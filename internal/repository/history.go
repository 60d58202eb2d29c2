package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

// dynamodbAPI is the subset of the DynamoDB client the repositories call.
type dynamodbAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// HistoryRepository stores conversation turns keyed by user id and timestamp.
// Deletion is a soft flag so the TTL sweep remains the only hard delete path.
type HistoryRepository struct {
	db    dynamodbAPI
	table string
}

func NewHistoryRepository(db dynamodbAPI, table string) (*HistoryRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("repository: dynamodb client must not be nil")
	}
	if table == "" {
		return nil, fmt.Errorf("repository: history table name must not be empty")
	}
	return &HistoryRepository{db: db, table: table}, nil
}

func (r *HistoryRepository) Append(ctx context.Context, turn domain.Turn) error {
	_, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.table,
		Item: map[string]types.AttributeValue{
			"ALUMNO_ID":    &types.AttributeValueMemberS{Value: turn.UserID},
			"DATE_TIME":    &types.AttributeValueMemberS{Value: turn.DateTime},
			"SILABUS_ID":   &types.AttributeValueMemberS{Value: turn.SyllabusID},
			"USER_MESSAGE": &types.AttributeValueMemberS{Value: turn.UserMessage},
			"AI_MESSAGE":   &types.AttributeValueMemberS{Value: turn.AIMessage},
			"PROMPT":       &types.AttributeValueMemberS{Value: turn.Prompt},
			"IS_DELETED":   &types.AttributeValueMemberBOOL{Value: false},
			"TTL":          &types.AttributeValueMemberN{Value: strconv.FormatInt(turn.TTL, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: append history turn for %q: %w", turn.UserID, err)
	}
	return nil
}

// Recent returns up to limit visible turns for the user within the syllabus,
// newest first. The key condition drives the read; the syllabus and deletion
// filters run server side, so the page size is padded to keep a single query
// round trip in the common case.
func (r *HistoryRepository) Recent(ctx context.Context, userID, syllabusID string, limit int) ([]domain.Turn, error) {
	if limit <= 0 {
		limit = 1
	}
	pageSize := int32(limit * 5)

	turns := make([]domain.Turn, 0, limit)
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.db.Query(ctx, &dynamodb.QueryInput{
			TableName:              &r.table,
			KeyConditionExpression: strPtr("ALUMNO_ID = :uid"),
			FilterExpression:       strPtr("SILABUS_ID = :sid AND IS_DELETED = :del"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
				":sid": &types.AttributeValueMemberS{Value: syllabusID},
				":del": &types.AttributeValueMemberBOOL{Value: false},
			},
			ScanIndexForward:  boolPtr(false),
			Limit:             &pageSize,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: query history for %q: %w", userID, err)
		}

		for _, item := range out.Items {
			turns = append(turns, turnFromItem(item))
			if len(turns) == limit {
				return turns, nil
			}
		}

		if len(out.LastEvaluatedKey) == 0 {
			return turns, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// MarkDeleted flags every visible turn of the user within the syllabus and
// returns how many were flagged.
func (r *HistoryRepository) MarkDeleted(ctx context.Context, userID, syllabusID string) (int, error) {
	flagged := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.db.Query(ctx, &dynamodb.QueryInput{
			TableName:              &r.table,
			KeyConditionExpression: strPtr("ALUMNO_ID = :uid"),
			FilterExpression:       strPtr("SILABUS_ID = :sid AND IS_DELETED = :del"),
			ProjectionExpression:   strPtr("ALUMNO_ID, DATE_TIME"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
				":sid": &types.AttributeValueMemberS{Value: syllabusID},
				":del": &types.AttributeValueMemberBOOL{Value: false},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return flagged, fmt.Errorf("repository: query history for delete %q: %w", userID, err)
		}

		for _, item := range out.Items {
			dateTime := stringAttr(item, "DATE_TIME")
			_, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
				TableName: &r.table,
				Key: map[string]types.AttributeValue{
					"ALUMNO_ID": &types.AttributeValueMemberS{Value: userID},
					"DATE_TIME": &types.AttributeValueMemberS{Value: dateTime},
				},
				UpdateExpression: strPtr("SET IS_DELETED = :del"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":del": &types.AttributeValueMemberBOOL{Value: true},
				},
			})
			if err != nil {
				return flagged, fmt.Errorf("repository: flag history turn %q/%q: %w", userID, dateTime, err)
			}
			flagged++
		}

		if len(out.LastEvaluatedKey) == 0 {
			return flagged, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func turnFromItem(item map[string]types.AttributeValue) domain.Turn {
	turn := domain.Turn{
		UserID:      stringAttr(item, "ALUMNO_ID"),
		DateTime:    stringAttr(item, "DATE_TIME"),
		SyllabusID:  stringAttr(item, "SILABUS_ID"),
		UserMessage: stringAttr(item, "USER_MESSAGE"),
		AIMessage:   stringAttr(item, "AI_MESSAGE"),
		Prompt:      stringAttr(item, "PROMPT"),
	}
	if v, ok := item["IS_DELETED"].(*types.AttributeValueMemberBOOL); ok {
		turn.IsDeleted = v.Value
	}
	if v, ok := item["TTL"].(*types.AttributeValueMemberN); ok {
		if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			turn.TTL = n
		}
	}
	return turn
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
