package database

import (
	"testing"

	modelspkg "github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesFollow(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.Follow); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include Follow")
}
