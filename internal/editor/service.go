// Package editor saves and publishes posts the way the dashboard editor does: cover upload,
// full page export and the PATCH of the post.
package editor

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-console/internal/cache"
	"github.com/debemdeboas/archive-console/internal/client"
	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/events"
	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/render"
	"github.com/debemdeboas/archive-console/internal/storage"
	"github.com/debemdeboas/archive-console/internal/theme"
	"github.com/debemdeboas/archive-console/internal/util"
)

var editorLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

var (
	ErrTitleRequired = errors.New("title is required")
	ErrSlugRequired  = errors.New("slug is required to publish")
)

// API is the part of the posts API the editor talks to.
type API interface {
	UpdatePost(ctx context.Context, id model.PostID, update model.PostUpdate) (*model.Post, error)
	UploadImage(ctx context.Context, u client.Upload) (model.Asset, error)
	UploadHTML(ctx context.Context, u client.Upload) (model.Asset, error)
	AssetURL(id model.AssetID) string
}

// CoverFile is a new cover image picked in the form.
type CoverFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Form holds the editor fields. Content is HTML unless ContentName ends in .md or
// .markdown, in which case it is rendered first and its front matter fills empty fields.
type Form struct {
	Title        string
	Slug         string
	TagsText     string
	Summary      string
	CoverCaption string

	Content     []byte
	ContentName string

	Cover        *CoverFile
	CoverAssetID model.AssetID
}

// FormFromPost loads a stored post into the form.
func FormFromPost(p model.Post) Form {
	f := Form{
		Title:        p.Title,
		Slug:         p.Slug,
		TagsText:     FormatTags(p.Tags),
		Summary:      p.Summary,
		CoverCaption: p.CoverCaption,
		Content:      []byte(p.Raw),
		ContentName:  "post.html",
	}
	if p.CoverAssetID != nil {
		f.CoverAssetID = *p.CoverAssetID
	}
	return f
}

type SaveResult struct {
	Post         *model.Post
	Update       model.PostUpdate
	CoverAssetID model.AssetID

	// Set when the cover upload failed. The post was still saved.
	CoverErr error
}

type PublishResult struct {
	SaveResult
	HTMLAsset model.Asset
	HTML      string

	// Failures of the optional mirror and event steps. The page is live regardless.
	MirrorErr error
	EventErr  error
}

type Service struct {
	api       API
	posts     *cache.PostCache
	store     storage.Storage
	prefix    string
	publisher events.Publisher
	cfg       config.EditorConfig
	now       func() time.Time
}

type Option func(*Service)

// WithStorage mirrors exported pages into store under prefix.
func WithStorage(store storage.Storage, prefix string) Option {
	return func(s *Service) {
		s.store = store
		s.prefix = prefix
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithPostCache(c *cache.PostCache) Option {
	return func(s *Service) { s.posts = c }
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(api API, cfg config.EditorConfig, opts ...Option) *Service {
	s := &Service{
		api:       api,
		publisher: events.NoopPublisher{},
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type document struct {
	title     string
	slug      string
	tags      []string
	summary   string
	caption   string
	raw       string
	syntaxCSS template.CSS
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// prepare resolves the form into the values sent to the server.
func (s *Service) prepare(f Form) (document, error) {
	doc := document{
		title:   strings.TrimSpace(f.Title),
		slug:    strings.TrimSpace(f.Slug),
		tags:    ParseTags(f.TagsText),
		summary: strings.TrimSpace(f.Summary),
		caption: strings.TrimSpace(f.CoverCaption),
		raw:     string(f.Content),
	}

	if isMarkdown(f.ContentName) {
		info, body := util.StripFrontMatter(f.Content)
		html, _ := render.RenderMarkdownCached(body, util.ContentHash(f.Content), s.cfg.MarkdownRenderer, s.cfg.HighlightTheme)
		doc.raw = string(html)
		doc.syntaxCSS = theme.GenerateSyntaxCSS(s.cfg.HighlightTheme)

		if info != nil {
			if doc.title == "" && info.TitleData != nil {
				doc.title = strings.TrimSpace(info.Title)
			}
			if doc.slug == "" {
				doc.slug = info.Slug
			}
			if len(doc.tags) == 0 && len(info.Tags) > 0 {
				doc.tags = ParseTags(strings.Join(info.Tags, ","))
			}
			if doc.summary == "" {
				doc.summary = strings.TrimSpace(info.Summary)
			}
			if doc.caption == "" {
				doc.caption = strings.TrimSpace(info.Caption)
			}
		}
	}

	if doc.title == "" {
		return document{}, ErrTitleRequired
	}
	if doc.slug == "" {
		doc.slug = Slugify(doc.title)
	}
	return doc, nil
}

func (s *Service) pageOptions() PageOptions {
	return PageOptions{
		HMargin:     s.cfg.HMargin,
		BgOpacity:   s.cfg.BgOpacity,
		TitleWeight: s.cfg.TitleWeight,
	}
}

func (s *Service) coverURL(id model.AssetID) string {
	if id == "" {
		return ""
	}
	return s.api.AssetURL(id)
}

func (s *Service) uploadCover(ctx context.Context, id model.PostID, doc document, cover *CoverFile) (model.AssetID, error) {
	alt := doc.title
	if alt == "" {
		alt = "post"
	}
	caption := doc.caption
	if caption == "" {
		caption = doc.title
	}

	asset, err := s.api.UploadImage(ctx, client.Upload{
		Filename:    cover.Filename,
		ContentType: cover.ContentType,
		Content:     strings.NewReader(string(cover.Data)),
		Alt:         "Cover image for " + alt,
		Caption:     caption,
		PostID:      id,
	})
	if err != nil {
		return "", err
	}
	return asset.ID, nil
}

// Save uploads a new cover when one was picked, renders the page and stores the post as a
// draft. A failed cover upload is reported in the result and the existing cover is kept.
func (s *Service) Save(ctx context.Context, id model.PostID, f Form) (SaveResult, error) {
	res, _, err := s.save(ctx, id, f)
	return res, err
}

func (s *Service) save(ctx context.Context, id model.PostID, f Form) (SaveResult, document, error) {
	if id == "" {
		return SaveResult{}, document{}, client.ErrMissingID
	}
	doc, err := s.prepare(f)
	if err != nil {
		return SaveResult{}, doc, err
	}

	res := SaveResult{CoverAssetID: f.CoverAssetID}
	if f.Cover != nil && len(f.Cover.Data) > 0 {
		assetID, err := s.uploadCover(ctx, id, doc, f.Cover)
		if err != nil {
			editorLogger.Warn().Err(err).Str("post_id", string(id)).Msg("Cover upload failed")
			res.CoverErr = fmt.Errorf("upload cover: %w", err)
		} else {
			res.CoverAssetID = assetID
		}
	}

	body, err := BuildFullHTML(PageParams{
		Title:        doc.title,
		Body:         doc.raw,
		CoverURL:     s.coverURL(res.CoverAssetID),
		CoverCaption: doc.caption,
		Options:      s.pageOptions(),
		SyntaxCSS:    doc.syntaxCSS,
	})
	if err != nil {
		return res, doc, err
	}

	res.Update = model.PostUpdate{
		Title:        doc.title,
		Slug:         doc.slug,
		Tags:         doc.tags,
		Summary:      doc.summary,
		Raw:          doc.raw,
		Body:         body,
		Status:       model.StatusDraft,
		CoverAssetID: res.CoverAssetID,
	}

	post, err := s.api.UpdatePost(ctx, id, res.Update)
	if err != nil {
		return res, doc, fmt.Errorf("save post %s: %w", id, err)
	}
	if post != nil {
		if post.ID == "" {
			post.ID = id
		}
		if s.posts != nil {
			s.posts.Set(*post)
		}
	}
	res.Post = post

	editorLogger.Info().Str("post_id", string(id)).Str("slug", doc.slug).Msg("Post saved")
	return res, doc, nil
}

// Publish saves the post, then exports the dated page as an HTML asset. The page is
// mirrored to object storage and announced when those are configured.
func (s *Service) Publish(ctx context.Context, id model.PostID, f Form) (PublishResult, error) {
	saved, doc, err := s.save(ctx, id, f)
	if err != nil {
		return PublishResult{SaveResult: saved}, err
	}
	res := PublishResult{SaveResult: saved}
	upd := saved.Update
	if upd.Slug == "" {
		return res, ErrSlugRequired
	}

	res.HTML, err = BuildFullHTML(PageParams{
		Title:        upd.Title,
		Body:         upd.Raw,
		CoverURL:     s.coverURL(saved.CoverAssetID),
		CoverCaption: doc.caption,
		Date:         s.now().Format(s.cfg.DateFormat),
		Options:      s.pageOptions(),
		SyntaxCSS:    doc.syntaxCSS,
	})
	if err != nil {
		return res, err
	}

	caption := upd.Title
	if caption == "" {
		caption = doc.caption
	}
	res.HTMLAsset, err = s.api.UploadHTML(ctx, client.Upload{
		Filename:    htmlFilename(upd.Slug),
		ContentType: config.CTypeHTML,
		Content:     strings.NewReader(res.HTML),
		Alt:         "HTML snapshot for " + upd.Title,
		Caption:     caption,
		PostID:      id,
	})
	if err != nil {
		return res, fmt.Errorf("upload page %s: %w", id, err)
	}

	if s.store != nil {
		key := storage.PostPageKey(s.prefix, upd.Slug)
		if err := s.store.Upload(ctx, key, strings.NewReader(res.HTML), config.CTypeHTML+"; charset=utf-8"); err != nil {
			editorLogger.Warn().Err(err).Str("key", key).Msg("Failed to mirror page")
			res.MirrorErr = err
		}
	}

	link := res.HTMLAsset.Link
	if link == "" && res.HTMLAsset.ID != "" {
		link = s.api.AssetURL(res.HTMLAsset.ID)
	}
	evt := events.NewPostPublished(events.PostPublishedPayload{
		PostID:      id,
		Slug:        upd.Slug,
		Title:       upd.Title,
		HTMLAssetID: res.HTMLAsset.ID,
		URL:         link,
	})
	if err := s.publisher.PublishPostPublished(ctx, evt); err != nil {
		editorLogger.Warn().Err(err).Str("post_id", string(id)).Msg("Failed to announce post")
		res.EventErr = err
	}

	editorLogger.Info().
		Str("post_id", string(id)).
		Str("asset_id", string(res.HTMLAsset.ID)).
		Msg("Post published")
	return res, nil
}
