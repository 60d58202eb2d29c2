package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

func libraryItem(ids ...string) map[string]types.AttributeValue {
	list := make([]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		list = append(list, &types.AttributeValueMemberS{Value: id})
	}
	return map[string]types.AttributeValue{
		"silabus_id": &types.AttributeValueMemberS{Value: "silabo-1"},
		"resources":  &types.AttributeValueMemberL{Value: list},
	}
}

func mustLibraryRepo(t *testing.T, db *fakeDynamo) *LibraryRepository {
	t.Helper()
	r, err := NewLibraryRepository(db, "library-table")
	require.NoError(t, err)
	return r
}

func TestLibraryGetResourceIDs_HappyPath(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: libraryItem("res-1", "res-2")}}
	r := mustLibraryRepo(t, db)

	ids, err := r.GetResourceIDs(context.Background(), "silabo-1")
	require.NoError(t, err)
	require.Equal(t, []string{"res-1", "res-2"}, ids)
	require.Equal(t, "silabo-1", db.lastGetInput.Key["silabus_id"].(*types.AttributeValueMemberS).Value)
}

func TestLibraryGetResourceIDs_MissingRowIsEmpty(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	r := mustLibraryRepo(t, db)

	ids, err := r.GetResourceIDs(context.Background(), "silabo-1")
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestLibraryGetResourceIDs_GetError(t *testing.T) {
	db := &fakeDynamo{getErr: errors.New("offline")}
	r := mustLibraryRepo(t, db)
	_, err := r.GetResourceIDs(context.Background(), "silabo-1")
	require.Error(t, err)
}

func TestLibraryAddResource_AppendsToList(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: libraryItem("res-1")}}
	r := mustLibraryRepo(t, db)

	err := r.AddResource(context.Background(), "silabo-1", "res-2")
	require.NoError(t, err)
	require.Len(t, db.updateInputs, 1)

	up := db.updateInputs[0]
	require.Contains(t, *up.UpdateExpression, "list_append")
	newList := up.ExpressionAttributeValues[":new"].(*types.AttributeValueMemberL)
	require.Len(t, newList.Value, 1)
	require.Equal(t, "res-2", newList.Value[0].(*types.AttributeValueMemberS).Value)
}

func TestLibraryAddResource_AlreadyBoundIsNoop(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: libraryItem("res-1")}}
	r := mustLibraryRepo(t, db)

	err := r.AddResource(context.Background(), "silabo-1", "res-1")
	require.NoError(t, err)
	require.Empty(t, db.updateInputs)
}

func TestLibraryRemoveResource_RewritesList(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: libraryItem("res-1", "res-2")}}
	r := mustLibraryRepo(t, db)

	err := r.RemoveResource(context.Background(), "silabo-1", "res-1")
	require.NoError(t, err)
	require.Len(t, db.updateInputs, 1)

	kept := db.updateInputs[0].ExpressionAttributeValues[":ids"].(*types.AttributeValueMemberL)
	require.Len(t, kept.Value, 1)
	require.Equal(t, "res-2", kept.Value[0].(*types.AttributeValueMemberS).Value)
}

func TestLibraryRemoveResource_UnboundIsNoop(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: libraryItem("res-1")}}
	r := mustLibraryRepo(t, db)

	err := r.RemoveResource(context.Background(), "silabo-1", "fantasma")
	require.NoError(t, err)
	require.Empty(t, db.updateInputs)
}
