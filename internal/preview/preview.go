// Package preview は著者ウェブサイトのプレビュー取得機能を提供する。
//
// 上流データの著者レコードにはウェブサイトのドメインのみが含まれる。
// 本パッケージはそのサイトのHTMLを取得し、タイトルと代表画像を
// 抽出してプレビューカードの材料にする。取得や解析の失敗は常に
// 「プレビューなし」へ縮退し、著者情報の表示自体は妨げない。
package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// SitePreview はウェブサイトのプレビューを表す。
type SitePreview struct {
	// URL は正規化済みのサイトURL。
	URL string `json:"url"`
	// Title はページタイトル（og:title優先、なければtitle要素）。
	Title string `json:"title"`
	// ImageURL はog:imageの絶対URL。未検出の場合は空文字列。
	ImageURL string `json:"imageUrl,omitempty"`
}

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Service はウェブサイトプレビューの取得サービス。
type Service struct {
	ssrfGuard SSRFValidator
	logger    *slog.Logger
	timeout   time.Duration
	maxSize   int64
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(ssrfGuard SSRFValidator, logger *slog.Logger, timeout time.Duration, maxSize int64) *Service {
	return &Service{
		ssrfGuard: ssrfGuard,
		logger:    logger,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// Fetch はウェブサイトのプレビューを取得する。
// website は著者レコードのウェブサイト値（スキームなしのドメインも可）。
// 取得・解析に失敗した場合はnilを返す（エラーは返さない）。
func (s *Service) Fetch(ctx context.Context, website string) *SitePreview {
	siteURL, err := NormalizeWebsiteURL(website)
	if err != nil {
		s.logger.Debug("ウェブサイトURLの正規化に失敗",
			slog.String("website", website),
			slog.String("error", err.Error()))
		return nil
	}

	// SSRF検証
	if err := s.ssrfGuard.ValidateURL(siteURL); err != nil {
		s.logger.Warn("ウェブサイトプレビューのURLをSSRF検証でブロック",
			slog.String("url", siteURL))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Blogview/1.0")
	req.Header.Set("Accept", "text/html, */*")

	client := s.ssrfGuard.NewSafeClient(s.timeout, s.maxSize)
	resp, err := client.Do(req)
	if err != nil {
		s.logger.Debug("ウェブサイトプレビューの取得に失敗",
			slog.String("url", siteURL),
			slog.String("error", err.Error()))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Debug("ウェブサイトプレビューの取得が非2xx応答",
			slog.String("url", siteURL),
			slog.Int("status_code", resp.StatusCode))
		return nil
	}

	// HTML以外（PDFや画像を直接指すサイト）はプレビュー対象外
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.Contains(strings.ToLower(mediaType), "html") {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize))
	if err != nil {
		return nil
	}

	title, image := parsePreviewFromHTML(body)
	if title == "" && image == "" {
		return nil
	}

	return &SitePreview{
		URL:      siteURL,
		Title:    title,
		ImageURL: resolveImageURL(siteURL, image),
	}
}

// NormalizeWebsiteURL は著者レコードのウェブサイト値を取得可能な
// URLへ正規化する。スキームがない場合はhttpsを補う。
func NormalizeWebsiteURL(website string) (string, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return "", fmt.Errorf("ウェブサイトが空です")
	}

	if !strings.Contains(website, "://") {
		website = "https://" + website
	}

	u, err := url.Parse(website)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("サポート外のスキーム: %s", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("ホストがありません: %s", website)
	}
	return u.String(), nil
}

// parsePreviewFromHTML はHTMLのheadタグからタイトルと代表画像を抽出する。
// og:titleがあればtitle要素より優先する。
func parsePreviewFromHTML(htmlBody []byte) (title, image string) {
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	var docTitle, ogTitle string
	inTitle := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return pickTitle(ogTitle, docTitle), image

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "title" {
				inTitle = true
				continue
			}

			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return pickTitle(ogTitle, docTitle), image
			}

			if tagName != "meta" || !hasAttr {
				continue
			}

			// meta要素の属性を解析
			var property, content string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "property", "name":
					property = strings.ToLower(string(val))
				case "content":
					content = string(val)
				}
				if !more {
					break
				}
			}

			switch property {
			case "og:title":
				ogTitle = strings.TrimSpace(content)
			case "og:image":
				if image == "" {
					image = strings.TrimSpace(content)
				}
			}

		case html.TextToken:
			if inTitle && docTitle == "" {
				docTitle = strings.TrimSpace(string(tokenizer.Text()))
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "title":
				inTitle = false
			case "head":
				return pickTitle(ogTitle, docTitle), image
			}
		}
	}
}

// pickTitle はog:titleを優先してタイトルを選択する。
func pickTitle(ogTitle, docTitle string) string {
	if ogTitle != "" {
		return ogTitle
	}
	return docTitle
}

// resolveImageURL は相対画像URLをサイトURLを基準に絶対URLへ解決する。
func resolveImageURL(siteURL, image string) string {
	if image == "" {
		return ""
	}
	base, err := url.Parse(siteURL)
	if err != nil {
		return image
	}
	ref, err := url.Parse(image)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
