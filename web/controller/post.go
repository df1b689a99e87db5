package controller

import (
	"errors"
	"net/http"

	"github.com/inkpost/blog/web/entity"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// PostController serves posts and their comments. Reading is public,
// commenting needs a login and everything else is for admins.
type PostController struct {
	BaseController

	postService    *service.PostService
	commentService *service.CommentService
}

func NewPostController(g *gin.RouterGroup, postService *service.PostService, commentService *service.CommentService) *PostController {
	a := &PostController{
		postService:    postService,
		commentService: commentService,
	}
	a.initRouter(g)
	return a
}

func (a *PostController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.GET("/posts/:id", a.show)

	admin := middleware.Require(middleware.AdminOnly)
	g.POST("/posts", admin, a.create)
	g.PUT("/posts/:id", admin, a.update)
	g.POST("/posts/:id/edit", admin, a.update)
	g.DELETE("/posts/:id", admin, a.delete)
	g.POST("/posts/:id/delete", admin, a.delete)

	g.POST("/posts/:id/comments", middleware.Require(middleware.Authenticated), a.comment)
	g.DELETE("/comments/:id", admin, a.deleteComment)
	g.POST("/comments/:id/delete", admin, a.deleteComment)
}

func (a *PostController) list(c *gin.Context) {
	posts, err := a.postService.ListPosts()
	if err != nil {
		jsonMsgObj(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err)
		return
	}
	jsonObj(c, posts)
}

func (a *PostController) show(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		pureJsonMsg(c, http.StatusNotFound, false, locale.T(c, "post.notFound"))
		return
	}
	post, err := a.postService.GetPost(id)
	if errors.Is(err, service.ErrPostNotFound) {
		pureJsonMsg(c, http.StatusNotFound, false, locale.T(c, "post.notFound"))
		return
	} else if err != nil {
		jsonMsgObj(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err)
		return
	}
	comments, err := a.commentService.ListComments(id)
	if err != nil {
		jsonMsgObj(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err)
		return
	}
	jsonObj(c, gin.H{"post": post, "comments": comments})
}

func (a *PostController) create(c *gin.Context) {
	var form entity.PostForm
	if err := c.ShouldBind(&form); err != nil {
		reply(c, http.StatusBadRequest, locale.T(c, "invalidForm"), nil, err, "/")
		return
	}
	user := session.GetLoginUser(c)
	post, err := a.postService.CreatePost(user.Id, &form)
	if err != nil {
		a.postError(c, err, "/")
		return
	}
	c.Set(middleware.AuditResourceIDKey, post.Id)
	reply(c, http.StatusCreated, locale.T(c, "post.created"), post, nil, postLocation(post.Id))
}

func (a *PostController) update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		pureJsonMsg(c, http.StatusNotFound, false, locale.T(c, "post.notFound"))
		return
	}
	var form entity.PostForm
	if err := c.ShouldBind(&form); err != nil {
		reply(c, http.StatusBadRequest, locale.T(c, "invalidForm"), nil, err, postLocation(id))
		return
	}
	post, err := a.postService.UpdatePost(id, &form)
	if err != nil {
		a.postError(c, err, postLocation(id))
		return
	}
	reply(c, http.StatusOK, locale.T(c, "post.updated"), post, nil, postLocation(id))
}

func (a *PostController) delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		pureJsonMsg(c, http.StatusNotFound, false, locale.T(c, "post.notFound"))
		return
	}
	if err := a.postService.DeletePost(id); err != nil {
		a.postError(c, err, "/")
		return
	}
	reply(c, http.StatusOK, locale.T(c, "post.deleted"), nil, nil, "/")
}

func (a *PostController) comment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		pureJsonMsg(c, http.StatusNotFound, false, locale.T(c, "post.notFound"))
		return
	}
	var form entity.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		reply(c, http.StatusBadRequest, locale.T(c, "comment.empty"), nil, err, postLocation(id))
		return
	}

	user := session.GetLoginUser(c)
	comment, err := a.commentService.AddComment(id, user.Id, form.Body)
	switch {
	case errors.Is(err, service.ErrEmptyField):
		reply(c, http.StatusBadRequest, locale.T(c, "comment.empty"), nil, err, postLocation(id))
		return
	case err != nil:
		a.postError(c, err, "/")
		return
	}
	c.Set(middleware.AuditResourceIDKey, comment.Id)
	reply(c, http.StatusCreated, locale.T(c, "comment.added"), comment, nil, postLocation(id))
}

func (a *PostController) deleteComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		pureJsonMsg(c, http.StatusNotFound, false, locale.T(c, "comment.notFound"))
		return
	}
	if err := a.commentService.DeleteComment(id); err != nil {
		a.postError(c, err, "/")
		return
	}
	reply(c, http.StatusOK, locale.T(c, "comment.deleted"), nil, nil, "/")
}

// postError maps service errors to responses.
func (a *PostController) postError(c *gin.Context, err error, location string) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		reply(c, http.StatusNotFound, locale.T(c, "post.notFound"), nil, err, "/")
	case errors.Is(err, service.ErrCommentNotFound):
		reply(c, http.StatusNotFound, locale.T(c, "comment.notFound"), nil, err, location)
	case errors.Is(err, service.ErrDuplicateTitle):
		reply(c, http.StatusConflict, locale.T(c, "post.duplicateTitle"), nil, err, location)
	case errors.Is(err, service.ErrEmptyField):
		reply(c, http.StatusBadRequest, locale.T(c, "invalidForm"), nil, err, location)
	default:
		reply(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err, location)
	}
}
