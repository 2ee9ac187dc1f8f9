package apiroutes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterAndGet(t *testing.T) {
	ClearForTesting()
	defer ClearForTesting()

	Register("/api/movies", "GET", "List movies")
	Register("/api/genres", "GET", "List genres")
	Register("/api/movies", "POST", "Create a movie")
	Register("/api/movies", "GET", "List movies with paging")

	routes := Get()
	assert.Len(t, routes, 3)
	assert.Equal(t, "/api/genres", routes[0].Path)
	assert.Equal(t, APIRoute{Path: "/api/movies", Method: "GET", Description: "List movies with paging"}, routes[1])
	assert.Equal(t, "POST", routes[2].Method)

	routes[0].Path = "mutated"
	assert.Equal(t, "/api/genres", Get()[0].Path)
}
