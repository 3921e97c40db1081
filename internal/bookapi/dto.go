package bookapi

// recommendationRequest is the POST /v1/recommendations body.
// Underscore fields defeat server-side caching and never affect results.
type recommendationRequest struct {
	RecommendationType string `json:"recommendation_type"`
	Limit              int    `json:"limit"`
	Genre              string `json:"genre,omitempty"`
	Timestamp          int64  `json:"_timestamp"`
	ClientID           string `json:"_client_id"`
	Seed               string `json:"_seed"`
	ForceUnique        bool   `json:"_force_unique"`
}

// recommendationResponse is the POST /v1/recommendations response
type recommendationResponse struct {
	Recommendations    []recommendationItem `json:"recommendations"`
	IsFallback         bool                 `json:"is_fallback"`
	FallbackReason     string               `json:"fallback_reason"`
	RecommendationType string               `json:"recommendation_type"`
}

// recommendationItem keeps required fields as pointers so a missing
// book_id or title is distinguishable from a zero value
type recommendationItem struct {
	BookID               *int64   `json:"book_id"`
	Title                *string  `json:"title"`
	Author               string   `json:"author"`
	Genres               []string `json:"genres"`
	AverageRating        float64  `json:"average_rating"`
	RatingCount          int      `json:"rating_count"`
	PublicationYear      *int     `json:"publication_year"`
	RelevanceScore       float64  `json:"relevance_score"`
	RecommendationReason string   `json:"recommendation_reason"`
}

// tokenResponse is the POST /v1/auth/login response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// userResponse is the GET /v1/auth/me response
type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// errorResponse is the platform's error envelope
type errorResponse struct {
	Detail string `json:"detail"`
}
