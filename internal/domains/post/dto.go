package post

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ========================================
// POST DTOs
// ========================================

// PostRequest is the body of both POST /admin/posts and PATCH /admin/posts/:id.
// Image URL is optional; an empty value falls back to the placeholder.
type PostRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category" binding:"required"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func (r PostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(1, 255),
		),
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
		),
		validation.Field(&r.Category,
			validation.Required.Error("category is required"),
			validation.Length(1, 100),
		),
		validation.Field(&r.ImageURL,
			validation.Length(0, 2048),
		),
	)
}

// Fields converts the request into domain fields.
func (r PostRequest) Fields() Fields {
	return Fields{
		Title:    r.Title,
		Content:  r.Content,
		Category: r.Category,
		ImageURL: r.ImageURL,
	}
}
