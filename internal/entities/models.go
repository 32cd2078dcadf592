package entities

// Book is the relational row for a catalog entry. Column names follow the
// legacy schema, which used camelCase for the optional attributes.
type Book struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Title         string `gorm:"size:255;not null" json:"title"`
	Author        string `gorm:"size:255" json:"author,omitempty"`
	PublishedDate string `gorm:"column:publishedDate;size:255" json:"publishedDate,omitempty"`
	ImageURL      string `gorm:"column:imageUrl;size:255" json:"imageUrl,omitempty"`
	Description   string `gorm:"size:4096" json:"description,omitempty"`
	CreatedBy     string `gorm:"column:createdBy;size:255" json:"createdBy,omitempty"`
	CreatedByID   string `gorm:"column:createdById;size:255" json:"createdById,omitempty"`
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;size:20;not null" json:"username"`
	Password string `gorm:"size:80;not null" json:"-"` // bcrypt hash
	IsActive bool   `gorm:"column:is_active;default:true" json:"is_active"`
}

// Review is keyed by (book_id, user_id): one review per user per book.
// There is no foreign-key cascade; deleting a book leaves its reviews behind
// until the orphan sweep reclaims them.
type Review struct {
	BookID     uint   `gorm:"primaryKey;column:book_id" json:"book_id"`
	UserID     uint   `gorm:"primaryKey;column:user_id" json:"user_id"`
	IsFavorite bool   `gorm:"column:is_favorite;default:false" json:"is_favorite"`
	Rating     int    `json:"rating"`
	Review     string `gorm:"size:4096" json:"review,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

func (User) TableName() string {
	return "users"
}

func (Review) TableName() string {
	return "reviews"
}
