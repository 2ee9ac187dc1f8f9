package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var req MovieCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"tmdb_id":1,"title":"x","release_date":"1999-10-15"}`), &req))
	require.NotNil(t, req.ReleaseDate)
	assert.Equal(t, time.Date(1999, time.October, 15, 0, 0, 0, 0, time.UTC), *req.ReleaseDate.TimePtr())

	out, err := json.Marshal(req.ReleaseDate)
	require.NoError(t, err)
	assert.Equal(t, `"1999-10-15"`, string(out))

	req = MovieCreateRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"release_date":null}`), &req))
	assert.Nil(t, req.ReleaseDate.TimePtr())

	assert.Error(t, json.Unmarshal([]byte(`{"release_date":"15/10/1999"}`), &req))
}

func TestCreditsAreFlattened(t *testing.T) {
	var req MovieCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"director_name":"David Fincher","actor1_tmdb_id":819}`), &req))
	require.NotNil(t, req.DirectorName)
	assert.Equal(t, "David Fincher", *req.DirectorName)
	assert.Equal(t, 819, *req.Actor1TMDBID)
}
