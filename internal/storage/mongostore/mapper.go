package mongostore

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mlutsenko/bookshelf/internal/storage"
)

// bookDoc is the stored document shape. Field names match the legacy
// collection layout (camelCase attribute keys, native _id).
type bookDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Author        string             `bson:"author,omitempty"`
	PublishedDate string             `bson:"publishedDate,omitempty"`
	ImageURL      string             `bson:"imageUrl,omitempty"`
	Description   string             `bson:"description,omitempty"`
	CreatedBy     string             `bson:"createdBy,omitempty"`
	CreatedByID   string             `bson:"createdById,omitempty"`
}

// fromDoc translates a stored document into the normalized record. The
// native ObjectID becomes its hex string and never leaks in raw form.
func fromDoc(doc bookDoc) storage.Book {
	return storage.Book{
		ID:            doc.ID.Hex(),
		Title:         doc.Title,
		Author:        doc.Author,
		PublishedDate: doc.PublishedDate,
		ImageURL:      doc.ImageURL,
		Description:   doc.Description,
		CreatedBy:     doc.CreatedBy,
		CreatedByID:   doc.CreatedByID,
	}
}

func applyFields(doc *bookDoc, fields storage.BookFields) {
	if fields.Title != nil {
		doc.Title = *fields.Title
	}
	if fields.Author != nil {
		doc.Author = *fields.Author
	}
	if fields.PublishedDate != nil {
		doc.PublishedDate = *fields.PublishedDate
	}
	if fields.ImageURL != nil {
		doc.ImageURL = *fields.ImageURL
	}
	if fields.Description != nil {
		doc.Description = *fields.Description
	}
	if fields.CreatedBy != nil {
		doc.CreatedBy = *fields.CreatedBy
	}
	if fields.CreatedByID != nil {
		doc.CreatedByID = *fields.CreatedByID
	}
}

// setDocument builds the $set payload for a partial update, touching only
// the supplied fields.
func setDocument(fields storage.BookFields) bson.M {
	set := bson.M{}
	if fields.Title != nil {
		set["title"] = *fields.Title
	}
	if fields.Author != nil {
		set["author"] = *fields.Author
	}
	if fields.PublishedDate != nil {
		set["publishedDate"] = *fields.PublishedDate
	}
	if fields.ImageURL != nil {
		set["imageUrl"] = *fields.ImageURL
	}
	if fields.Description != nil {
		set["description"] = *fields.Description
	}
	if fields.CreatedBy != nil {
		set["createdBy"] = *fields.CreatedBy
	}
	if fields.CreatedByID != nil {
		set["createdById"] = *fields.CreatedByID
	}
	return set
}
