package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/policy"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/utils"
)

// ArticleChecker reports whether an article exists.
type ArticleChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// CommentService runs every comment operation through the policy first,
// then the reply validator (on create), and only then the store.
type CommentService struct {
	Comments stores.CommentStore
	Articles ArticleChecker
	Policy   policy.Policy
}

// NewCommentService wires a service with the comment policy.
func NewCommentService(comments stores.CommentStore, articles ArticleChecker) *CommentService {
	return &CommentService{Comments: comments, Articles: articles, Policy: policy.CommentPolicy{}}
}

// CreateCommentInput is a create request as received from the client.
// Article and ReplyTo are untyped because clients send numbers or strings.
type CreateCommentInput struct {
	Content string
	Article any
	ReplyTo any
}

// List returns comments newest first.
func (s *CommentService) List(ctx context.Context, caller policy.Caller, filter stores.CommentFilter) ([]CommentView, error) {
	if !s.Policy.Decide(caller, policy.ActionList, nil) {
		return nil, ErrForbidden
	}
	comments, err := s.Comments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return NewCommentViews(comments), nil
}

// Tree returns comments nested under the comment they reply to.
func (s *CommentService) Tree(ctx context.Context, caller policy.Caller, filter stores.CommentFilter) ([]*CommentView, error) {
	flat, err := s.List(ctx, caller, filter)
	if err != nil {
		return nil, err
	}
	return AssembleTree(flat), nil
}

// ListForArticle returns the flat comment list of one article.
func (s *CommentService) ListForArticle(ctx context.Context, caller policy.Caller, articleID uint) ([]CommentView, error) {
	if !s.Policy.Decide(caller, policy.ActionList, nil) {
		return nil, ErrForbidden
	}
	if err := s.requireArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.List(ctx, caller, stores.CommentFilter{ArticleID: &articleID})
}

// Get returns a single comment.
func (s *CommentService) Get(ctx context.Context, caller policy.Caller, id uint) (CommentView, error) {
	if !s.Policy.Decide(caller, policy.ActionRetrieve, nil) {
		return CommentView{}, ErrForbidden
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return CommentView{}, err
	}
	return NewCommentView(c), nil
}

// Create stores a comment written by caller. The author always comes
// from caller, never from the request.
func (s *CommentService) Create(ctx context.Context, caller policy.Caller, in CreateCommentInput) (CommentView, error) {
	if !s.Policy.Decide(caller, policy.ActionCreate, nil) {
		return CommentView{}, ErrForbidden
	}
	return s.create(ctx, caller, in)
}

// CreateOnArticle stores a comment on the article addressed by the URL;
// any article in the body is ignored.
func (s *CommentService) CreateOnArticle(ctx context.Context, caller policy.Caller, articleID uint, in CreateCommentInput) (CommentView, error) {
	if !s.Policy.Decide(caller, policy.ActionCreate, nil) {
		return CommentView{}, ErrForbidden
	}
	if err := s.requireArticle(ctx, articleID); err != nil {
		return CommentView{}, err
	}
	in.Article = articleID
	return s.create(ctx, caller, in)
}

func (s *CommentService) create(ctx context.Context, caller policy.Caller, in CreateCommentInput) (CommentView, error) {
	if err := (ReplyValidator{Comments: s.Comments}).Validate(ctx, in.Article, in.ReplyTo); err != nil {
		return CommentView{}, err
	}

	content, verr := cleanContent(in.Content)
	if verr != nil {
		return CommentView{}, verr
	}
	articleID, err := s.resolveArticle(ctx, in.Article)
	if err != nil {
		return CommentView{}, err
	}

	comment := &models.Comment{
		ArticleID: articleID,
		Content:   content,
	}
	if caller.Authenticated && caller.UserID != 0 {
		author := caller.UserID
		comment.AuthorID = &author
	}
	if replyID, ok := utils.TryParseUint(in.ReplyTo); ok {
		comment.ReplyToID = &replyID
	}
	if err := s.Comments.Create(ctx, comment); err != nil {
		return CommentView{}, err
	}
	return NewCommentView(comment), nil
}

// Update changes the content of a comment. A nil content leaves it as is.
func (s *CommentService) Update(ctx context.Context, caller policy.Caller, id uint, content *string) (CommentView, error) {
	current, err := s.authorizeTarget(ctx, caller, policy.ActionUpdate, id)
	if err != nil {
		return CommentView{}, err
	}
	if content == nil {
		return NewCommentView(current), nil
	}
	cleaned, verr := cleanContent(*content)
	if verr != nil {
		return CommentView{}, verr
	}
	updated, err := s.Comments.Update(ctx, id, stores.CommentUpdate{Content: cleaned})
	if errors.Is(err, stores.ErrNotFound) {
		return CommentView{}, ErrNotFound
	}
	if err != nil {
		return CommentView{}, err
	}
	return NewCommentView(updated), nil
}

// Delete removes a comment and every reply below it.
func (s *CommentService) Delete(ctx context.Context, caller policy.Caller, id uint) error {
	if _, err := s.authorizeTarget(ctx, caller, policy.ActionDelete, id); err != nil {
		return err
	}
	err := s.Comments.Delete(ctx, id)
	if errors.Is(err, stores.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// authorizeTarget rejects anonymous callers before the lookup, then applies
// the object-level rule to the stored comment.
func (s *CommentService) authorizeTarget(ctx context.Context, caller policy.Caller, action policy.Action, id uint) (*models.Comment, error) {
	if !caller.Authenticated {
		return nil, ErrForbidden
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Policy.Decide(caller, action, &policy.Target{AuthorID: c.AuthorID}) {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *CommentService) load(ctx context.Context, id uint) (*models.Comment, error) {
	c, err := s.Comments.Get(ctx, id)
	if errors.Is(err, stores.ErrNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *CommentService) requireArticle(ctx context.Context, id uint) error {
	ok, err := s.Articles.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// resolveArticle turns the article reference of a request into an existing id.
func (s *CommentService) resolveArticle(ctx context.Context, ref any) (uint, error) {
	if utils.IsBlank(ref) {
		return 0, fieldError("article", "This field is required.")
	}
	id, ok := utils.TryParseUint(ref)
	if !ok {
		return 0, fieldError("article", "Incorrect type. Expected pk value.")
	}
	exists, err := s.Articles.Exists(ctx, id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fieldError("article", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
	}
	return id, nil
}

func cleanContent(raw string) (string, *ValidationError) {
	if utf8.RuneCountInString(raw) > models.MaxCommentLength {
		return "", fieldError("content", fmt.Sprintf("Ensure this field has no more than %d characters.", models.MaxCommentLength))
	}
	content := utils.SanitizeComment(raw)
	if content == "" {
		return "", fieldError("content", "This field may not be blank.")
	}
	return content, nil
}
