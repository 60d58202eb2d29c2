package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

// ResourceRepository stores the resource catalog and the content-hash dedupe
// table.
type ResourceRepository struct {
	db            dynamodbAPI
	resourceTable string
	hashTable     string
}

func NewResourceRepository(db dynamodbAPI, resourceTable, hashTable string) (*ResourceRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("repository: dynamodb client must not be nil")
	}
	if resourceTable == "" || hashTable == "" {
		return nil, fmt.Errorf("repository: resource and hash table names must not be empty")
	}
	return &ResourceRepository{db: db, resourceTable: resourceTable, hashTable: hashTable}, nil
}

func (r *ResourceRepository) GetResource(ctx context.Context, resourceID string) (domain.Resource, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.resourceTable,
		Key: map[string]types.AttributeValue{
			"resource_id": &types.AttributeValueMemberS{Value: resourceID},
		},
	})
	if err != nil {
		return domain.Resource{}, fmt.Errorf("repository: get resource %q: %w", resourceID, err)
	}
	if out.Item == nil {
		return domain.Resource{}, fmt.Errorf("repository: resource %q: %w", resourceID, domain.ErrNotFound)
	}
	return domain.Resource{
		ID:          resourceID,
		Title:       stringAttr(out.Item, "resource_title"),
		DriveID:     stringAttr(out.Item, "drive_id"),
		FileHash:    stringAttr(out.Item, "file_hash"),
		S3Path:      stringAttr(out.Item, "s3_path"),
		PineconeIDs: stringListAttr(out.Item, "pinecone_ids"),
	}, nil
}

func (r *ResourceRepository) PutResource(ctx context.Context, res domain.Resource) error {
	ids := make([]types.AttributeValue, 0, len(res.PineconeIDs))
	for _, id := range res.PineconeIDs {
		ids = append(ids, &types.AttributeValueMemberS{Value: id})
	}

	_, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.resourceTable,
		Item: map[string]types.AttributeValue{
			"resource_id":    &types.AttributeValueMemberS{Value: res.ID},
			"resource_title": &types.AttributeValueMemberS{Value: res.Title},
			"drive_id":       &types.AttributeValueMemberS{Value: res.DriveID},
			"file_hash":      &types.AttributeValueMemberS{Value: res.FileHash},
			"s3_path":        &types.AttributeValueMemberS{Value: res.S3Path},
			"pinecone_ids":   &types.AttributeValueMemberL{Value: ids},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: put resource %q: %w", res.ID, err)
	}
	return nil
}

func (r *ResourceRepository) DeleteResource(ctx context.Context, resourceID string) error {
	_, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.resourceTable,
		Key: map[string]types.AttributeValue{
			"resource_id": &types.AttributeValueMemberS{Value: resourceID},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: delete resource %q: %w", resourceID, err)
	}
	return nil
}

// GetHash reports whether identical content is already indexed and, if so,
// where its original lives.
func (r *ResourceRepository) GetHash(ctx context.Context, fileHash string) (string, bool, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.hashTable,
		Key: map[string]types.AttributeValue{
			"file_hash": &types.AttributeValueMemberS{Value: fileHash},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("repository: get hash %q: %w", fileHash, err)
	}
	if out.Item == nil {
		return "", false, nil
	}
	return stringAttr(out.Item, "s3_path"), true, nil
}

func (r *ResourceRepository) PutHash(ctx context.Context, fileHash, s3Path string) error {
	_, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.hashTable,
		Item: map[string]types.AttributeValue{
			"file_hash": &types.AttributeValueMemberS{Value: fileHash},
			"s3_path":   &types.AttributeValueMemberS{Value: s3Path},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: put hash %q: %w", fileHash, err)
	}
	return nil
}

func (r *ResourceRepository) DeleteHash(ctx context.Context, fileHash string) error {
	_, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.hashTable,
		Key: map[string]types.AttributeValue{
			"file_hash": &types.AttributeValueMemberS{Value: fileHash},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: delete hash %q: %w", fileHash, err)
	}
	return nil
}
