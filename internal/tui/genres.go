package tui

// AllGenres is the genre picker entry that clears the filter
const AllGenres = "All"

// Genres lists the genre filter choices in picker order
var Genres = []string{
	AllGenres,
	"Fiction",
	"Fantasy",
	"Science Fiction",
	"Mystery",
	"Thriller",
	"Romance",
	"Horror",
	"Historical Fiction",
	"Biography",
	"Self-Help",
	"Business",
}
