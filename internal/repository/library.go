package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// LibraryRepository stores the syllabus to resource-id binding. A syllabus
// with no row has an empty library.
type LibraryRepository struct {
	db    dynamodbAPI
	table string
}

func NewLibraryRepository(db dynamodbAPI, table string) (*LibraryRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("repository: dynamodb client must not be nil")
	}
	if table == "" {
		return nil, fmt.Errorf("repository: library table name must not be empty")
	}
	return &LibraryRepository{db: db, table: table}, nil
}

func (r *LibraryRepository) GetResourceIDs(ctx context.Context, syllabusID string) ([]string, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.table,
		Key: map[string]types.AttributeValue{
			"silabus_id": &types.AttributeValueMemberS{Value: syllabusID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: get library %q: %w", syllabusID, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return stringListAttr(out.Item, "resources"), nil
}

// AddResource appends the resource id to the syllabus library, creating the
// row on first use. Already-bound ids are left as they are.
func (r *LibraryRepository) AddResource(ctx context.Context, syllabusID, resourceID string) error {
	ids, err := r.GetResourceIDs(ctx, syllabusID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == resourceID {
			return nil
		}
	}

	_, err = r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &r.table,
		Key: map[string]types.AttributeValue{
			"silabus_id": &types.AttributeValueMemberS{Value: syllabusID},
		},
		UpdateExpression: strPtr("SET #r = list_append(if_not_exists(#r, :empty), :new)"),
		ExpressionAttributeNames: map[string]string{
			"#r": "resources",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":new": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: resourceID},
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: bind resource %q to library %q: %w", resourceID, syllabusID, err)
	}
	return nil
}

// RemoveResource rewrites the library without the resource id. Removing an
// id that is not bound is a no-op.
func (r *LibraryRepository) RemoveResource(ctx context.Context, syllabusID, resourceID string) error {
	ids, err := r.GetResourceIDs(ctx, syllabusID)
	if err != nil {
		return err
	}

	kept := make([]types.AttributeValue, 0, len(ids))
	found := false
	for _, id := range ids {
		if id == resourceID {
			found = true
			continue
		}
		kept = append(kept, &types.AttributeValueMemberS{Value: id})
	}
	if !found {
		return nil
	}

	_, err = r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &r.table,
		Key: map[string]types.AttributeValue{
			"silabus_id": &types.AttributeValueMemberS{Value: syllabusID},
		},
		UpdateExpression: strPtr("SET #r = :ids"),
		ExpressionAttributeNames: map[string]string{
			"#r": "resources",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ids": &types.AttributeValueMemberL{Value: kept},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: unbind resource %q from library %q: %w", resourceID, syllabusID, err)
	}
	return nil
}

func stringListAttr(item map[string]types.AttributeValue, name string) []string {
	list, ok := item[name].(*types.AttributeValueMemberL)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list.Value))
	for _, v := range list.Value {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			out = append(out, s.Value)
		}
	}
	return out
}
