package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultGammaBaseURL is the public generation API endpoint.
const DefaultGammaBaseURL = "https://public-api.gamma.app/v1.0"

const (
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 10 * time.Minute
	// Window to re-poll when a generation reports completed before its
	// export URL is attached.
	urlGraceWindow   = 45 * time.Second
	urlGraceInterval = 2500 * time.Millisecond
)

var themeIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{8,}$`)

// GammaClient communicates with the gamma generation HTTP API.
type GammaClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger

	pollInterval  time.Duration
	pollTimeout   time.Duration
	urlGrace      time.Duration
	graceInterval time.Duration
}

func NewGammaClient(baseURL, apiKey string, log *slog.Logger) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaBaseURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &GammaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log:          log,
		pollInterval:  defaultPollInterval,
		pollTimeout:   defaultPollTimeout,
		urlGrace:      urlGraceWindow,
		graceInterval: urlGraceInterval,
	}
}

// SetPollTimeout overrides how long RenderDeck waits for a generation.
func (c *GammaClient) SetPollTimeout(d time.Duration) {
	if d > 0 {
		c.pollTimeout = d
	}
}

// Theme is one entry from GET /themes.
type Theme struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Generation is the status document for one generation.
type Generation struct {
	ID        string            `json:"generationId"`
	AltID     string            `json:"id"`
	Status    string            `json:"status"`
	ExportURL string            `json:"exportUrl"`
	PptxURL   string            `json:"pptxUrl"`
	Exports   map[string]string `json:"exports"`
}

func (g *Generation) generationID() string {
	if g.ID != "" {
		return g.ID
	}
	return g.AltID
}

func (g *Generation) fileURL() string {
	if g.ExportURL != "" {
		return g.ExportURL
	}
	if g.PptxURL != "" {
		return g.PptxURL
	}
	return g.Exports["pptx"]
}

func (g *Generation) terminal() (done bool, failed bool) {
	switch strings.ToLower(g.Status) {
	case "completed", "complete", "succeeded", "success":
		return true, false
	case "failed", "error":
		return true, true
	}
	return false, false
}

// RenderOptions control one gamma render.
type RenderOptions struct {
	// Theme is a theme id or a theme name to resolve; empty skips themeId.
	Theme string
	// OutputPath is the target pptx path; an existing file gets a numbered
	// suffix instead of being overwritten.
	OutputPath string
}

// RenderDeck runs the full gamma flow: start a generation from the deck's
// input text, poll to a terminal status, and download the pptx export.
// Returns the path the artifact was written to.
func (c *GammaClient) RenderDeck(ctx context.Context, inputText string, numCards int, opts RenderOptions) (string, error) {
	themeID := ""
	if opts.Theme != "" {
		id, err := c.ResolveThemeID(ctx, opts.Theme)
		if err != nil {
			return "", err
		}
		if id == "" {
			c.log.Warn("gamma theme not found, proceeding without themeId", "theme", opts.Theme)
		} else {
			c.log.Info("gamma theme resolved", "theme", opts.Theme, "theme_id", id)
		}
		themeID = id
	}

	genID, err := c.startGeneration(ctx, inputText, themeID, numCards)
	if err != nil {
		return "", err
	}
	c.log.Info("gamma generation started", "generation_id", genID, "num_cards", numCards)

	gen, err := c.pollGeneration(ctx, genID)
	if err != nil {
		return "", err
	}

	fileURL := gen.fileURL()
	if fileURL == "" {
		fileURL, err = c.waitForExportURL(ctx, genID)
		if err != nil {
			return "", err
		}
	}
	if fileURL == "" {
		return "", fmt.Errorf("gamma generation %s completed without a download url", genID)
	}

	outPath := avoidCollision(opts.OutputPath)
	if err := c.downloadFile(ctx, fileURL, outPath); err != nil {
		return "", fmt.Errorf("download generation %s: %w", genID, err)
	}
	c.log.Info("gamma artifact downloaded", "generation_id", genID, "path", outPath)
	return outPath, nil
}

func (c *GammaClient) startGeneration(ctx context.Context, inputText, themeID string, numCards int) (string, error) {
	payload := map[string]any{
		"inputText": inputText,
		"format":    "presentation",
		"exportAs":  "pptx",
		"textMode":  "preserve",
		"numCards":  numCards,
		"cardOptions": map[string]any{
			"dimensions": "16x9",
		},
		"cardSplit": "inputTextBreaks",
		// Generated stock imagery is off; diagram slots are filled by the
		// post-processor instead.
		"imageOptions": map[string]any{
			"source": "noImages",
		},
		"textOptions": map[string]any{
			"language": "ko",
			"tone":     "professional, clear",
			"amount":   "medium",
		},
		"additionalInstructions": additionalInstructions(numCards),
	}
	if themeID != "" {
		payload["themeId"] = themeID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generation: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("start generation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("start generation: status %d: %s", resp.StatusCode, string(respBody))
	}

	var gen Generation
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("decode generation: %w", err)
	}
	id := gen.generationID()
	if id == "" {
		return "", fmt.Errorf("generation response carries no id")
	}
	return id, nil
}

func (c *GammaClient) getGeneration(ctx context.Context, id string) (*Generation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/generations/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("get generation %s: status %d: %s", id, resp.StatusCode, string(respBody))
	}

	var gen Generation
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("decode generation: %w", err)
	}
	return &gen, nil
}

func (c *GammaClient) pollGeneration(ctx context.Context, id string) (*Generation, error) {
	deadline := time.Now().Add(c.pollTimeout)
	for {
		gen, err := c.getGeneration(ctx, id)
		if err != nil {
			return nil, err
		}
		done, failed := gen.terminal()
		if failed {
			return nil, fmt.Errorf("gamma generation %s failed with status %q", id, gen.Status)
		}
		if done {
			return gen, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("gamma generation %s polling timeout after %s", id, c.pollTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// waitForExportURL re-polls a completed generation whose export URL has not
// been attached yet.
func (c *GammaClient) waitForExportURL(ctx context.Context, id string) (string, error) {
	deadline := time.Now().Add(c.urlGrace)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.graceInterval):
		}
		gen, err := c.getGeneration(ctx, id)
		if err != nil {
			return "", err
		}
		if u := gen.fileURL(); u != "" {
			return u, nil
		}
	}
	return "", nil
}

// ListThemes pages through GET /themes collecting every entry matching the
// optional query.
func (c *GammaClient) ListThemes(ctx context.Context, query string) ([]Theme, error) {
	const maxPages = 5
	var themes []Theme
	after := ""
	for page := 0; page < maxPages; page++ {
		params := url.Values{"limit": {"50"}}
		if query != "" {
			params.Set("query", query)
		}
		if after != "" {
			params.Set("after", after)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/themes?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("X-API-KEY", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("list themes: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return nil, fmt.Errorf("list themes: status %d: %s", resp.StatusCode, string(respBody))
		}
		var payload struct {
			Data       []Theme `json:"data"`
			HasMore    bool    `json:"hasMore"`
			NextCursor string  `json:"nextCursor"`
		}
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode themes: %w", err)
		}
		themes = append(themes, payload.Data...)
		if !payload.HasMore || strings.TrimSpace(payload.NextCursor) == "" {
			break
		}
		after = strings.TrimSpace(payload.NextCursor)
	}
	return themes, nil
}

// ResolveThemeID maps a theme name to its id via the themes API. Inputs that
// already look like an id pass through; an unknown name resolves to "".
func (c *GammaClient) ResolveThemeID(ctx context.Context, nameOrID string) (string, error) {
	raw := strings.TrimSpace(nameOrID)
	if raw == "" {
		return "", nil
	}
	if themeIDRE.MatchString(raw) {
		return raw, nil
	}
	themes, err := c.ListThemes(ctx, raw)
	if err != nil {
		return "", err
	}
	for _, t := range themes {
		if strings.EqualFold(strings.TrimSpace(t.Name), raw) {
			return strings.TrimSpace(t.ID), nil
		}
	}
	if len(themes) > 0 {
		return strings.TrimSpace(themes[0].ID), nil
	}
	return "", nil
}

func (c *GammaClient) downloadFile(ctx context.Context, fileURL, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	// Export URLs are long-lived downloads, not API calls.
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: status %d", resp.StatusCode)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(outPath)
		return fmt.Errorf("write output file: %w", err)
	}
	return f.Close()
}

// avoidCollision returns path, or a " (n)" suffixed variant when the file
// already exists so a locked or open artifact is never overwritten.
func avoidCollision(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; i < 200; i++ {
		cand := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
	return fmt.Sprintf("%s_%d%s", base, time.Now().Unix(), ext)
}

var (
	unsafeFilenameRE = regexp.MustCompile(`[\\/:*?"<>|]+`)
	bracketRE        = regexp.MustCompile(`[()\[\]{}]`)
	filenameSpaceRE  = regexp.MustCompile(`\s+`)
)

// SafeFilename sanitizes a deck title into a filesystem-safe base name capped
// at 36 runes, cutting on a word boundary when one lands past rune 16.
func SafeFilename(name string) string {
	name = unsafeFilenameRE.ReplaceAllString(name, " ")
	name = strings.TrimSpace(filenameSpaceRE.ReplaceAllString(name, " "))
	if name == "" {
		return "result"
	}
	name = bracketRE.ReplaceAllString(name, "")
	const maxLen = 36
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	cut := string(runes[:maxLen+1])
	if ws := strings.LastIndex(cut, " "); ws >= 16 {
		return strings.TrimRight(cut[:ws], " ")
	}
	return strings.TrimRight(string(runes[:maxLen]), " ")
}

func additionalInstructions(numCards int) string {
	return strings.Join([]string{
		fmt.Sprintf("정확히 %d장만 생성. 추가/삭제/분할/병합 금지.", numCards),
		"슬라이드 순서 변경 금지.",
		"SECTION 블록 순서 절대 유지: 기관 소개 -> 연구 개요 -> 연구 필요성 -> 연구 목표 -> 연구 내용 -> 추진 계획 -> 활용방안 및 기대효과 -> 사업화 전략 및 계획 -> Q&A.",
		"한 섹션이 시작되면 다음 섹션으로 넘어가기 전까지 해당 섹션 슬라이드를 연속 배치.",
		"영어 문장/영어 제목 금지(고유명사/약어만 예외).",
		"사진/실사/캐릭터/배경 이미지 생성 금지.",
		"TABLE_MD / CHART_SPEC_KO / DIAGRAM_SPEC_KO가 있으면 반드시 반영.",
		"텍스트 밀도 과소 금지: 긴 문단은 금지하되, 슬라이드 당 정보 블록 최소 2개 이상 배치.",
		"설명 문장보다 구조화된 정보 전달(표/도식) 우선.",
		"'추가 정보/문의/연락처' 같은 마무리 슬라이드 생성 금지.",
		"마지막은 '감사합니다' 1장만 허용(중복 금지).",
		"디자인 스타일: 깔끔한 카드형 레이아웃, 균형 배치, 둥근 모서리 중심.",
		"연한 회색 배경 + 블루 포인트 톤. 과도한 빈 공간 금지.",
		"슬라이드별 SLIDE_LAYOUT / VISUAL_SLOT / CONTENT_DENSITY 힌트를 우선 적용.",
		"한 슬라이드당 핵심 메시지 1개, 불릿은 3~5개 권장.",
		"빈 공간이 크면 카드 2열/요약 박스/표/도식으로 반드시 채운다.",
		"IMAGE_NEEDED=true 인 슬라이드는 빈 이미지 슬롯/회색 박스/깨진 이미지 아이콘을 절대 만들지 않는다.",
		"IMAGE_NEEDED=true 인 슬라이드는 layout=text_image로 생성하고, 우측 40% 영역은 도형/다이어그램/표 등 실제 시각요소로 직접 채운다.",
		"텍스트 박스/도형/표는 이미지/시각요소 영역을 침범하지 않도록 배치(겹침 금지).",
		"입력 블록의 TITLE/KEY_MESSAGE/BULLETS는 의미 변경 없이 최대한 원문 그대로 사용.",
		"문장 축약, 재서술, 표현 치환 최소화. 특히 TITLE은 원문 유지.",
		"SLIDE 블록 1개를 카드 1장으로 1:1 매핑하고, 블록 병합/분할 금지.",
		"문장 형태로 작성하지 않는다. 모든 항목은 명사구 또는 키워드 형태로 작성.",
		"문장 종결어미 사용 금지 (~다, ~니다, ~합니다, ~됩니다 포함).",
		"발표 슬라이드용 bullet 형태로 작성. 최소 3개 bullet이 없으면 해당 슬라이드 생성 금지.",
		"목차 슬라이드에서는 제목만 출력하고 설명 문장은 출력하지 않는다.",
		"표 생성 시 헤더 행 강조 색상, 행별 연한 alternating 색상, 글자색 대비 확보.",
		"When a table is needed, use a simple PowerPoint table object.",
		"Keep [SLIDE i/N] ... [ENDSLIDE] blocks unchanged.",
	}, "\n")
}
