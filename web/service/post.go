package service

import (
	"strings"
	"time"

	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/web/entity"

	"gorm.io/gorm"
)

const postDateLayout = "January 02, 2006"

// PostView is a post joined with its author's display name.
type PostView struct {
	Id         int    `json:"id"`
	AuthorId   int    `json:"authorId"`
	AuthorName string `json:"authorName"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Date       string `json:"date"`
	Body       string `json:"body,omitempty"`
	ImgUrl     string `json:"imgUrl"`
}

type PostService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db, now: time.Now}
}

func (s *PostService) viewQuery() *gorm.DB {
	return s.db.Table("posts").
		Select("posts.id, posts.author_id, users.display_name AS author_name, posts.title, posts.subtitle, posts.date, posts.body, posts.img_url").
		Joins("LEFT JOIN users ON users.id = posts.author_id")
}

// ListPosts returns every post, newest first, without bodies.
func (s *PostService) ListPosts() ([]PostView, error) {
	posts := make([]PostView, 0)
	if err := s.viewQuery().Order("posts.id DESC").Scan(&posts).Error; err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Body = ""
	}
	return posts, nil
}

func (s *PostService) GetPost(id int) (*PostView, error) {
	var posts []PostView
	if err := s.viewQuery().Where("posts.id = ?", id).Limit(1).Scan(&posts).Error; err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrPostNotFound
	}
	return &posts[0], nil
}

// checkPostForm trims the single-line fields and rejects a form left with a
// blank field.
func checkPostForm(form *entity.PostForm) error {
	form.Trim()
	if form.Title == "" || form.Subtitle == "" || form.ImgUrl == "" || strings.TrimSpace(form.Body) == "" {
		return ErrEmptyField
	}
	return nil
}

func (s *PostService) CreatePost(authorID int, form *entity.PostForm) (*model.Post, error) {
	if err := checkPostForm(form); err != nil {
		return nil, err
	}
	post := &model.Post{
		AuthorId: authorID,
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Body:     form.Body,
		ImgUrl:   form.ImgUrl,
		Date:     s.now().Format(postDateLayout),
	}
	if err := s.db.Create(post).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) UpdatePost(id int, form *entity.PostForm) (*model.Post, error) {
	if err := checkPostForm(form); err != nil {
		return nil, err
	}
	post := &model.Post{}
	if err := s.db.First(post, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	err := s.db.Model(post).Updates(map[string]any{
		"title":    form.Title,
		"subtitle": form.Subtitle,
		"body":     form.Body,
		"img_url":  form.ImgUrl,
	}).Error
	if err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}
	return post, nil
}

// DeletePost removes the post together with its comments.
func (s *PostService) DeletePost(id int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

func (s *PostService) CountPosts() (int64, error) {
	var n int64
	err := s.db.Model(&model.Post{}).Count(&n).Error
	return n, err
}
