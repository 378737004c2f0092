package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renovatuludoteca/ludoteca-server/internal/store"
)

func TestError_Error(t *testing.T) {
	assert.Equal(t, "catalog entry not found", store.ErrCatalogEntryNotFound.Error())

	cause := errors.New("UNIQUE constraint failed: game_catalog.bgg_id")
	err := &store.Error{Code: http.StatusConflict, Message: "duplicate", Err: cause}
	assert.Equal(t, "duplicate: UNIQUE constraint failed: game_catalog.bgg_id", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestError_HTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, store.ErrCatalogEntryNotFound.HTTPCode())
	assert.Equal(t, http.StatusConflict, store.ErrCatalogEntryExists.HTTPCode())
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("get catalog entry: %w", store.ErrCatalogEntryNotFound)
	assert.True(t, errors.Is(err, store.ErrCatalogEntryNotFound))
	assert.False(t, errors.Is(err, store.ErrCatalogEntryExists))
}
