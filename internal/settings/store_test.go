package settings

import (
	"context"
	"testing"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutAndAll(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.New(t))

	empty, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Put(ctx, map[string]string{
		"business_name": "SJ Spark Jewel",
		"phone_number":  "+91 1",
	}))
	require.NoError(t, s.Put(ctx, map[string]string{"phone_number": "+91 2"}))

	got, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"business_name": "SJ Spark Jewel",
		"phone_number":  "+91 2",
	}, got)
}

func TestStore_PutRejectsEmptyKey(t *testing.T) {
	s := NewStore(dbtest.New(t))
	err := s.Put(context.Background(), map[string]string{"": "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
