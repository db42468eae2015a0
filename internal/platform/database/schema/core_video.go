package schema

// CoreVideoTable represents the 'core.video' table
type CoreVideoTable struct {
	Table        string
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	DurationSec  string
	ViewCount    string
	IsPublished  string
	CreatedAt    string
	UpdatedAt    string
	DeletedAt    string
}

// CoreVideo is the schema definition for core.video
var CoreVideo = CoreVideoTable{
	Table:        "core.video",
	ID:           "id",
	OwnerID:      "ownerid",
	Title:        "title",
	Description:  "description",
	VideoURL:     "videourl",
	ThumbnailURL: "thumbnailurl",
	DurationSec:  "durationsec",
	ViewCount:    "viewcount",
	IsPublished:  "ispublished",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
	DeletedAt:    "deletedat",
}

// Columns returns all standard column names
func (t CoreVideoTable) Columns() []string {
	return []string{
		t.ID, t.OwnerID, t.Title, t.Description, t.VideoURL, t.ThumbnailURL,
		t.DurationSec, t.ViewCount, t.IsPublished, t.CreatedAt, t.UpdatedAt,
	}
}
