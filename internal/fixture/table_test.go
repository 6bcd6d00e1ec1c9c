package fixture_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/dogbreeds/internal/breed"
	"github.com/rohmanhakim/dogbreeds/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "breeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTable_SubBreeds(t *testing.T) {
	table := fixture.New(map[string][]string{
		" Hound ": {"afghan", "basset"},
	})

	list, err := table.SubBreeds(context.Background(), "HOUND")
	require.NoError(t, err)
	assert.Equal(t, []string{"afghan", "basset"}, list)
}

func TestTable_UnknownBreed(t *testing.T) {
	table := fixture.Default()

	_, err := table.SubBreeds(context.Background(), "cat")

	assert.ErrorIs(t, err, breed.ErrNotFound)
	var be *breed.BreedError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, breed.ErrCauseUnknownBreed, be.Cause)
	assert.Equal(t, "cat", be.Breed)
}

func TestTable_EmptyBreed(t *testing.T) {
	table := fixture.Default()

	_, err := table.SubBreeds(context.Background(), "   ")

	assert.ErrorIs(t, err, breed.ErrNotFound)
	var be *breed.BreedError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, breed.ErrCauseInvalidBreed, be.Cause)
}

func TestTable_ReturnsCopies(t *testing.T) {
	input := []string{"afghan"}
	table := fixture.New(map[string][]string{"hound": input})
	input[0] = "changed"

	first, _ := table.SubBreeds(context.Background(), "hound")
	first[0] = "mutated"

	second, _ := table.SubBreeds(context.Background(), "hound")
	assert.Equal(t, []string{"afghan"}, second)
}

func TestDefault(t *testing.T) {
	table := fixture.Default()

	hound, err := table.SubBreeds(context.Background(), "hound")
	require.NoError(t, err)
	assert.Len(t, hound, 7)

	pug, err := table.SubBreeds(context.Background(), "pug")
	require.NoError(t, err)
	assert.NotNil(t, pug)
	assert.Empty(t, pug)

	assert.Equal(t, []string{"bulldog", "hound", "pug", "retriever", "spaniel"}, table.Breeds())
}

func TestLoadFile(t *testing.T) {
	path := writeFixture(t, `
breeds:
  hound: [afghan, basset]
  Terrier:
    - american
    - australian
  pug: []
`)

	table, err := fixture.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hound", "pug", "terrier"}, table.Breeds())

	list, err := table.SubBreeds(context.Background(), "terrier")
	require.NoError(t, err)
	assert.Equal(t, []string{"american", "australian"}, list)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: fixture.ErrFileDoesNotExist,
		},
		{
			name:    "invalid yaml",
			path:    func(t *testing.T) string { return writeFixture(t, "breeds: [unclosed") },
			wantErr: fixture.ErrFixtureParsingFail,
		},
		{
			name:    "no breeds",
			path:    func(t *testing.T) string { return writeFixture(t, "other: 1\n") },
			wantErr: fixture.ErrFixtureParsingFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture.LoadFile(tt.path(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
