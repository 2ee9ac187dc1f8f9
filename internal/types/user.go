package types

// TokenResponse is returned by the login endpoint
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserCreateRequest is the body of an open registration. is_active and
// is_superuser are accepted for compatibility but never honoured.
type UserCreateRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,max=72"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser *bool  `json:"is_superuser"`
}

// UserUpdateRequest carries the fields to change; nil means unchanged
type UserUpdateRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	Username    *string `json:"username" binding:"omitempty,min=1"`
	Password    *string `json:"password" binding:"omitempty,min=1,max=72"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// MovieRatingCreateRequest rates a movie, replacing any earlier rating
type MovieRatingCreateRequest struct {
	MovieID string   `json:"movie_id" binding:"required,uuid"`
	Rating  *float64 `json:"rating" binding:"required,gte=0,lte=10"`
	Comment *string  `json:"comment"`
}

// TVShowRatingCreateRequest rates a tv show, replacing any earlier rating
type TVShowRatingCreateRequest struct {
	TVShowID string   `json:"tv_show_id" binding:"required,uuid"`
	Rating   *float64 `json:"rating" binding:"required,gte=0,lte=10"`
	Comment  *string  `json:"comment"`
}

// RatingUpdateRequest changes an existing rating of either kind
type RatingUpdateRequest struct {
	Rating  *float64 `json:"rating" binding:"omitempty,gte=0,lte=10"`
	Comment *string  `json:"comment"`
}
