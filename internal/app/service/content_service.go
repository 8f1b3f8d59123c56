package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/handmade-storefront/internal/app/model"
	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/ikkim/handmade-storefront/pkg/strapi"
)

var ErrContentNotFound = errors.New("content not found")

const defaultArticlePageSize = 12

// ContentSource is the part of the Strapi client serving editorial content
type ContentSource interface {
	ListFAQs(ctx context.Context) ([]strapi.Entity[strapi.FAQ], error)
	GetLegalPage(ctx context.Context, slug string) (*strapi.Entity[strapi.LegalPage], error)
	ListArticles(ctx context.Context, page, pageSize int) (*strapi.ListResponse[strapi.Article], error)
	GetArticleBySlug(ctx context.Context, slug string) (*strapi.Entity[strapi.Article], error)
	CreateContactMessage(ctx context.Context, msg strapi.ContactMessage) error
}

type ContentService interface {
	ListFAQs(ctx context.Context) ([]model.FAQ, error)
	GetLegalPage(ctx context.Context, slug string) (*model.LegalPage, error)
	ListArticles(ctx context.Context, page, pageSize int) (*model.ArticlePage, error)
	GetArticle(ctx context.Context, slug string) (*model.Article, error)
	SubmitContactMessage(ctx context.Context, msg model.ContactMessage) error
}

type contentService struct {
	source        ContentSource
	assetsBaseURL string
}

func NewContentService(source ContentSource, assetsBaseURL string) ContentService {
	return &contentService{
		source:        source,
		assetsBaseURL: strings.TrimRight(assetsBaseURL, "/"),
	}
}

func (s *contentService) ListFAQs(ctx context.Context) ([]model.FAQ, error) {
	entities, err := s.source.ListFAQs(ctx)
	if err != nil {
		logger.Error("Failed to list FAQs", err)
		return nil, err
	}

	faqs := make([]model.FAQ, 0, len(entities))
	for _, e := range entities {
		if strings.TrimSpace(e.Attributes.Question) == "" {
			continue
		}
		faqs = append(faqs, model.FAQ{
			ID:       e.ID,
			Question: e.Attributes.Question,
			Answer:   e.Attributes.Answer,
		})
	}
	return faqs, nil
}

func (s *contentService) GetLegalPage(ctx context.Context, slug string) (*model.LegalPage, error) {
	entity, err := s.source.GetLegalPage(ctx, slug)
	if err != nil {
		return nil, s.notFoundOr(err, "legal page", slug)
	}

	page := entity.Attributes
	return &model.LegalPage{
		Slug:      slug,
		Title:     titleOrDefault(page.Title),
		Body:      page.Body,
		UpdatedAt: page.UpdatedAt,
	}, nil
}

func (s *contentService) ListArticles(ctx context.Context, page, pageSize int) (*model.ArticlePage, error) {
	if pageSize < 1 {
		pageSize = defaultArticlePageSize
	}
	page, pageSize = normalizePaging(page, pageSize)

	resp, err := s.source.ListArticles(ctx, page, pageSize)
	if err != nil {
		logger.Error("Failed to list articles", err, map[string]interface{}{
			"page": page,
		})
		return nil, err
	}

	articles := make([]model.Article, 0, len(resp.Data))
	for i := range resp.Data {
		article := s.toArticle(&resp.Data[i])
		article.Body = ""
		articles = append(articles, article)
	}

	return &model.ArticlePage{
		Articles:   articles,
		Pagination: toPagination(resp.Meta.Pagination),
	}, nil
}

func (s *contentService) GetArticle(ctx context.Context, slug string) (*model.Article, error) {
	entity, err := s.source.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, s.notFoundOr(err, "article", slug)
	}

	article := s.toArticle(entity)
	return &article, nil
}

func (s *contentService) SubmitContactMessage(ctx context.Context, msg model.ContactMessage) error {
	err := s.source.CreateContactMessage(ctx, strapi.ContactMessage{
		Name:    strings.TrimSpace(msg.Name),
		Email:   strings.TrimSpace(msg.Email),
		Subject: strings.TrimSpace(msg.Subject),
		Message: strings.TrimSpace(msg.Message),
	})
	if err != nil {
		logger.Error("Failed to submit contact message", err, map[string]interface{}{
			"email": msg.Email,
		})
		return err
	}

	logger.Info("Contact message submitted", map[string]interface{}{
		"email": msg.Email,
	})
	return nil
}

func (s *contentService) toArticle(e *strapi.Entity[strapi.Article]) model.Article {
	a := e.Attributes
	cover := model.PlaceholderImage
	if a.Cover.Data != nil && a.Cover.Data.Attributes.URL != "" {
		cover = assetURL(s.assetsBaseURL, a.Cover.Data.Attributes.URL)
	}
	return model.Article{
		ID:          e.ID,
		Slug:        a.Slug,
		Title:       titleOrDefault(a.Title),
		Excerpt:     a.Excerpt,
		Body:        a.Body,
		CoverURL:    cover,
		PublishedAt: a.PublishedAt,
	}
}

func (s *contentService) notFoundOr(err error, kind, slug string) error {
	if errors.Is(err, strapi.ErrNotFound) {
		logger.Warn("Content not found", map[string]interface{}{
			"kind": kind,
			"slug": slug,
		})
		return ErrContentNotFound
	}
	logger.Error("Failed to fetch content", err, map[string]interface{}{
		"kind": kind,
		"slug": slug,
	})
	return err
}
