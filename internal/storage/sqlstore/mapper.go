package sqlstore

import (
	"strconv"

	"github.com/mlutsenko/bookshelf/internal/entities"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

// fromRow translates a relational book row into the normalized record. The
// integer primary key becomes a decimal string at the boundary.
func fromRow(row entities.Book) storage.Book {
	return storage.Book{
		ID:            strconv.FormatUint(uint64(row.ID), 10),
		Title:         row.Title,
		Author:        row.Author,
		PublishedDate: row.PublishedDate,
		ImageURL:      row.ImageURL,
		Description:   row.Description,
		CreatedBy:     row.CreatedBy,
		CreatedByID:   row.CreatedByID,
	}
}

func fromReviewRow(row entities.Review) storage.Review {
	return storage.Review{
		BookID:     strconv.FormatUint(uint64(row.BookID), 10),
		UserID:     row.UserID,
		Rating:     row.Rating,
		Review:     row.Review,
		IsFavorite: row.IsFavorite,
	}
}

// fromUserRow copies every declared user attribute, including the stored
// password hash; the JSON tag keeps it out of serialized output.
func fromUserRow(row entities.User) storage.User {
	return storage.User{
		ID:       row.ID,
		Username: row.Username,
		Password: row.Password,
		IsActive: row.IsActive,
	}
}

// applyFields overwrites only the supplied fields, leaving others untouched.
func applyFields(row *entities.Book, fields storage.BookFields) {
	if fields.Title != nil {
		row.Title = *fields.Title
	}
	if fields.Author != nil {
		row.Author = *fields.Author
	}
	if fields.PublishedDate != nil {
		row.PublishedDate = *fields.PublishedDate
	}
	if fields.ImageURL != nil {
		row.ImageURL = *fields.ImageURL
	}
	if fields.Description != nil {
		row.Description = *fields.Description
	}
	if fields.CreatedBy != nil {
		row.CreatedBy = *fields.CreatedBy
	}
	if fields.CreatedByID != nil {
		row.CreatedByID = *fields.CreatedByID
	}
}
