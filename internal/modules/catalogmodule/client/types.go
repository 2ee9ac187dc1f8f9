package client

// Genre is an entry of the upstream genre taxonomy
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the response of /genre/{kind}/list
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// CastMember is one credited actor, in billing order
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is one credited crew member
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the cast and crew sub-document
type Credits struct {
	ID   int          `json:"id,omitempty"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// MovieDetails is the response of /movie/{id}
type MovieDetails struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	OriginalTitle    string   `json:"original_title"`
	Overview         string   `json:"overview"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	ReleaseDate      string   `json:"release_date"`
	Popularity       float64  `json:"popularity"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Adult            bool     `json:"adult"`
	OriginalLanguage string   `json:"original_language"`
	Genres           []Genre  `json:"genres"`
	Credits          *Credits `json:"credits,omitempty"`
}

// TVDetails is the response of /tv/{id}
type TVDetails struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	FirstAirDate     string  `json:"first_air_date"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	OriginalLanguage string  `json:"original_language"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	Status           string  `json:"status"`
	Genres           []Genre `json:"genres"`
}

// ListItem is one result of a listing or search endpoint. Only the fields
// needed to drive reconciliation are decoded.
type ListItem struct {
	ID         int     `json:"id"`
	MediaType  string  `json:"media_type,omitempty"`
	Title      string  `json:"title,omitempty"`
	Name       string  `json:"name,omitempty"`
	Popularity float64 `json:"popularity"`
}

// ListResponse is the paginated envelope shared by listing and search endpoints
type ListResponse struct {
	Page         int        `json:"page"`
	Results      []ListItem `json:"results"`
	TotalResults int        `json:"total_results"`
	TotalPages   int        `json:"total_pages"`
}
