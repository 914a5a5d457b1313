package domain

// CreateDiaryRequest is the input of a new diary entry.
type CreateDiaryRequest struct {
	Title       string      `json:"title" form:"title" binding:"required,max=255"`
	Content     string      `json:"content" form:"content" binding:"required"`
	Visibility  Visibility  `json:"visibility" form:"visibility" binding:"omitempty,oneof=all no_one"`
	Commentable Commentable `json:"commentable" form:"commentable" binding:"omitempty,oneof=all no_one"`
	Feeling     *Feeling    `json:"feeling" form:"feeling" binding:"omitempty,min=0,max=3"`
}

// UpdateDiaryRequest changes a diary. Nil fields are left alone. The slug
// never changes.
type UpdateDiaryRequest struct {
	Title       *string      `json:"title" form:"title" binding:"omitempty,min=1,max=255"`
	Content     *string      `json:"content" form:"content" binding:"omitempty,min=1"`
	Visibility  *Visibility  `json:"visibility" form:"visibility" binding:"omitempty,oneof=all no_one"`
	Commentable *Commentable `json:"commentable" form:"commentable" binding:"omitempty,oneof=all no_one"`
	Feeling     *Feeling     `json:"feeling" form:"feeling" binding:"omitempty,min=0,max=3"`
}

type AddCommentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

type UpdateProfileRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=63"`
	Gender      *Gender `json:"gender" binding:"omitempty,oneof=m f n"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}
