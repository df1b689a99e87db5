package service

import (
	"strings"

	"github.com/inkpost/blog/database/model"

	"gorm.io/gorm"
)

// CommentView is a comment joined with its author's display name.
type CommentView struct {
	Id         int    `json:"id"`
	PostId     int    `json:"postId"`
	AuthorId   int    `json:"authorId"`
	AuthorName string `json:"authorName"`
	Text       string `json:"text"`
}

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func (s *CommentService) AddComment(postID, authorID int, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyField
	}

	var count int64
	if err := s.db.Model(&model.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrPostNotFound
	}

	comment := &model.Comment{PostId: postID, AuthorId: authorID, Text: text}
	if err := s.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) ListComments(postID int) ([]CommentView, error) {
	comments := make([]CommentView, 0)
	err := s.db.Table("comments").
		Select("comments.id, comments.post_id, comments.author_id, users.display_name AS author_name, comments.text").
		Joins("LEFT JOIN users ON users.id = comments.author_id").
		Where("comments.post_id = ?", postID).
		Order("comments.id ASC").
		Scan(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *CommentService) DeleteComment(id int) error {
	res := s.db.Delete(&model.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
