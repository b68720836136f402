package config

// Defaults for the main database and the review rating scale
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultRatingMin is the lowest accepted review rating
	DefaultRatingMin = 1

	// DefaultRatingMax is the highest accepted review rating
	DefaultRatingMax = 5
)
