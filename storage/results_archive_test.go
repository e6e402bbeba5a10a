package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *recordingStore) Put(_ context.Context, key, contentType string, reader io.Reader) (*StoredObject, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.key, u.contentType, u.body = key, contentType, body
	return &StoredObject{Key: key, URL: u.PublicURL(key)}, nil
}

func (u *recordingStore) PublicURL(key string) string {
	return "https://cdn.example/" + key
}

func TestResultArchive_Archive(t *testing.T) {
	objects := &recordingStore{}
	archive := NewResultArchive(objects)
	archive.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }

	champion := 4
	res, err := archive.Archive(context.Background(), TournamentResult{
		Tournament: &models.Tournament{ID: 12, Name: "Cup", Format: models.FormatKnockout, Status: models.StatusCompleted},
		ChampionID: &champion,
		Matches:    []*models.Match{{ID: 1, TournamentID: 12, RoundNumber: 1, MatchNumber: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "results/tournament_12.json", res.Key)
	assert.Equal(t, "https://cdn.example/results/tournament_12.json", res.URL)
	assert.Equal(t, ContentTypeJSON, objects.contentType)

	var decoded TournamentResult
	require.NoError(t, json.Unmarshal(objects.body, &decoded))
	assert.Equal(t, 12, decoded.Tournament.ID)
	require.NotNil(t, decoded.ChampionID)
	assert.Equal(t, 4, *decoded.ChampionID)
	assert.Len(t, decoded.Matches, 1)
	assert.True(t, decoded.ArchivedAt.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func TestResultArchive_Errors(t *testing.T) {
	archive := NewResultArchive(&recordingStore{err: errors.New("bucket unavailable")})

	_, err := archive.Archive(context.Background(), TournamentResult{})
	assert.Error(t, err)

	_, err = archive.Archive(context.Background(), TournamentResult{Tournament: &models.Tournament{ID: 1}})
	assert.ErrorContains(t, err, "bucket unavailable")
}

func TestPublicURL(t *testing.T) {
	base, err := url.Parse("https://pub.example.dev/assets")
	require.NoError(t, err)

	assert.Equal(t, "https://pub.example.dev/assets/results/t.json", publicURL(base, "results/t.json"))
	assert.Equal(t, "https://pub.example.dev/assets/results/t.json", publicURL(base, "/results/t.json"))
	assert.Empty(t, publicURL(base, ""))
	assert.Empty(t, publicURL(nil, "k"))
}

func TestNewR2ObjectStore(t *testing.T) {
	ctx := context.Background()

	_, err := NewR2ObjectStore(ctx, R2Config{AccountID: "acc", BucketName: "results"})
	assert.Error(t, err)

	objects, err := NewR2ObjectStore(ctx, R2Config{
		AccountID:       "acc",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "results",
		PublicBaseURL:   "https://pub.example.dev",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pub.example.dev/results/tournament_3.json", objects.PublicURL(ResultKey(3)))
}
