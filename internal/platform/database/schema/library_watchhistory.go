package schema

// LibraryWatchHistoryTable represents the 'library.watchhistory' table
type LibraryWatchHistoryTable struct {
	Table     string
	ID        string
	UserID    string
	VideoID   string
	WatchedAt string
}

// LibraryWatchHistory is the schema definition for library.watchhistory
var LibraryWatchHistory = LibraryWatchHistoryTable{
	Table:     "library.watchhistory",
	ID:        "id",
	UserID:    "userid",
	VideoID:   "videoid",
	WatchedAt: "watchedat",
}
