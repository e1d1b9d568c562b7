package section

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
)

// Decision reasons recorded per block for debugging and the status API.
const (
	ReasonLowSignal          = "low_signal"
	ReasonSmallGap           = "small_gap"
	ReasonReassignByScore    = "reassign_by_score"
	ReasonKeepHeading        = "keep_heading"
	ReasonShortAmbiguousKeep = "short_ambiguous_keep_heading"
	ReasonReclassified       = "gemini_reclassify"
	ReasonAmbiguousFallback  = "ambiguous_fallback"
	ReasonAllowedGuard       = "allowed_guard_fallback"
	ReasonNoHeadersFallback  = "no_headers_fallback"
)

// Ambiguity and reassignment thresholds, tuned on real proposal documents.
const (
	minBestScore    = 1.0
	minGap          = 1.8
	reassignMargin  = 2.5
	reassignMaxConf = 1.0
	headBonus       = 0.7
	headBonusWindow = 220
	minPreludeRunes = 160
	shortChunkRunes = 180
)

// keywordTable scores a block's affinity to each content section. Keys are
// matched on the normalized form of both keyword and text.
var keywordTable = map[Label][]string{
	Overview:   {"연구개발의개요", "개요", "과제개요", "대상기술", "연구범위"},
	Necessity:  {"연구개발의필요성", "국내외현황", "중요성", "선행연구", "중복성", "차별성", "필요성", "배경"},
	Goals:      {"연구목표", "최종목표", "성과지표", "정량목표", "목표"},
	Content:    {"연구개발과제의내용", "연구내용", "핵심기술", "데이터", "모델", "아키텍처", "구성", "수행일정", "주요결과물"},
	Plan:       {"추진전략", "추진방법", "추진체계", "수행체계", "국제공동", "마일스톤", "로드맵", "일정", "추진계획"},
	Impact:     {"활용방안", "활용계획", "기대효과", "파급효과", "정책효과", "경제효과", "사회적효과", "성과활용"},
	Commercial: {"사업화전략", "사업화계획", "시장동향", "지식재산권", "표준화", "인증기준", "사업화", "안전조치", "보안조치", "이행계획", "보안", "안전"},
}

// ReclassifyItem is one ambiguous block sent to the reclassifier.
type ReclassifyItem struct {
	ID      int
	Heading Label
	Allowed []Label
	Text    string
}

// Reclassifier resolves ambiguous blocks, typically via an LLM. Results
// outside an item's Allowed set are discarded by the splitter.
type Reclassifier interface {
	ReclassifySections(ctx context.Context, items []ReclassifyItem) (map[int]Label, error)
}

// Decision records how one text block was routed.
type Decision struct {
	LineStart int    `json:"line_start"`
	Main      int    `json:"main"`
	Sub       int    `json:"sub"`
	Heading   Label  `json:"heading_section"`
	Selected  Label  `json:"selected_section"`
	Ambiguous bool   `json:"ambiguous"`
	Reason    string `json:"reason"`
	Length    int    `json:"length"`
}

// Result carries one text block per canonical section plus the per-block
// decision trail.
type Result struct {
	Chunks    map[Label]string
	Decisions []Decision
}

// Splitter routes proposal text into canonical sections. The zero value is
// not usable; construct with NewSplitter.
type Splitter struct {
	reclassifier Reclassifier
	extra        map[Label][]string
	log          *slog.Logger
}

// NewSplitter builds a splitter. reclassifier may be nil, in which case
// ambiguous blocks fall back to their heading section. extraKeywords extends
// the built-in scoring table per label.
func NewSplitter(reclassifier Reclassifier, extraKeywords map[Label][]string, log *slog.Logger) *Splitter {
	if log == nil {
		log = slog.Default()
	}
	return &Splitter{reclassifier: reclassifier, extra: extraKeywords, log: log}
}

// Split never fails: a document without recognizable headings lands whole
// under the Overview section.
func (s *Splitter) Split(ctx context.Context, text string) *Result {
	lines := strings.Split(text, "\n")

	type header struct {
		lineIdx int
		h       Heading
		label   Label
	}
	var headers []header
	for i, raw := range lines {
		h, ok := parseHeading(raw)
		if !ok {
			continue
		}
		label, ok := labelForHeading(h)
		if !ok {
			continue
		}
		headers = append(headers, header{lineIdx: i, h: h, label: label})
	}

	res := &Result{Chunks: make(map[Label]string, len(CanonicalOrder))}
	for _, l := range CanonicalOrder {
		res.Chunks[l] = ""
	}

	if len(headers) == 0 {
		res.Chunks[Overview] = text
		res.Decisions = append(res.Decisions, Decision{LineStart: -1, Heading: Overview, Selected: Overview, Reason: ReasonNoHeadersFallback, Length: krtext.RuneLen(text)})
		s.log.Debug("no section headers found, whole text routed to overview")
		return res
	}

	// Prelude before the first heading is mostly form noise; keep it only
	// when enough survives cleaning.
	if first := headers[0].lineIdx; first > 0 {
		pre := cleanChunk(strings.Join(lines[:first], "\n"))
		if krtext.RuneLen(pre) >= minPreludeRunes {
			res.Chunks[Overview] = pre
		}
	}

	appendChunk := func(target Label, chunk string) {
		if res.Chunks[target] != "" {
			res.Chunks[target] += "\n\n" + chunk
		} else {
			res.Chunks[target] = chunk
		}
	}

	var pending []ReclassifyItem
	pendingMeta := make(map[int]header)

	for j, h := range headers {
		end := len(lines)
		if j+1 < len(headers) {
			end = headers[j+1].lineIdx
		}
		chunk := cleanChunk(strings.Join(lines[h.lineIdx:end], "\n"))
		if chunk == "" {
			continue
		}

		selected, ambiguous, reason := s.route(chunk, h.label)
		res.Decisions = append(res.Decisions, Decision{
			LineStart: h.lineIdx,
			Main:      h.h.Main,
			Sub:       h.h.Sub,
			Heading:   h.label,
			Selected:  selected,
			Ambiguous: ambiguous,
			Reason:    reason,
			Length:    krtext.RuneLen(chunk),
		})

		if ambiguous {
			if krtext.RuneLen(chunk) < shortChunkRunes {
				appendChunk(h.label, chunk)
				res.Decisions = append(res.Decisions, Decision{
					LineStart: h.lineIdx,
					Main:      h.h.Main,
					Sub:       h.h.Sub,
					Heading:   h.label,
					Selected:  h.label,
					Reason:    ReasonShortAmbiguousKeep,
					Length:    krtext.RuneLen(chunk),
				})
				continue
			}
			id := len(pending)
			pending = append(pending, ReclassifyItem{
				ID:      id,
				Heading: h.label,
				Allowed: allowedLabels(h.h, h.label),
				Text:    chunk,
			})
			pendingMeta[id] = h
			continue
		}
		appendChunk(selected, chunk)
	}

	reclassified := s.reclassify(ctx, pending)

	for _, p := range pending {
		h := pendingMeta[p.ID]
		target, reason, ambiguous := h.label, ReasonAmbiguousFallback, true
		if got, ok := reclassified[p.ID]; ok {
			target, reason, ambiguous = got, ReasonReclassified, false
		}
		if !labelIn(target, p.Allowed) {
			target, reason, ambiguous = h.label, ReasonAllowedGuard, true
		}
		appendChunk(target, p.Text)
		res.Decisions = append(res.Decisions, Decision{
			LineStart: -1,
			Main:      h.h.Main,
			Sub:       h.h.Sub,
			Heading:   h.label,
			Selected:  target,
			Ambiguous: ambiguous,
			Reason:    reason,
			Length:    krtext.RuneLen(p.Text),
		})
	}

	return res
}

// route scores one block and applies the decision ladder: low signal and
// small gap mark the block ambiguous, a decisively better non-heading score
// reassigns, anything else keeps the heading section.
func (s *Splitter) route(chunk string, heading Label) (selected Label, ambiguous bool, reason string) {
	scores := s.score(chunk)
	best, bestScore, _, secondScore := bestTwo(scores)

	if bestScore < minBestScore {
		return heading, true, ReasonLowSignal
	}
	if bestScore-secondScore < minGap {
		return heading, true, ReasonSmallGap
	}

	conf := scores[heading]
	if best != heading && bestScore-conf >= reassignMargin && conf <= reassignMaxConf {
		return best, false, ReasonReassignByScore
	}
	return heading, false, ReasonKeepHeading
}

// score counts normalized keyword occurrences per section, with a bonus for
// keywords appearing near the top of the block.
func (s *Splitter) score(text string) map[Label]float64 {
	tk := krtext.NormKey(text)
	head := krtext.TruncateRunes(tk, headBonusWindow)
	scores := make(map[Label]float64, len(keywordTable))
	for label, kws := range keywordTable {
		scores[label] = 0
		all := kws
		if extra := s.extra[label]; len(extra) > 0 {
			all = append(append([]string{}, kws...), extra...)
		}
		for _, kw := range all {
			k := krtext.NormKey(kw)
			if k == "" {
				continue
			}
			if cnt := strings.Count(tk, k); cnt > 0 {
				scores[label] += float64(cnt)
				if strings.Contains(head, k) {
					scores[label] += headBonus
				}
			}
		}
	}
	return scores
}

func bestTwo(scores map[Label]float64) (best Label, bestScore float64, second Label, secondScore float64) {
	labels := make([]Label, 0, len(scores))
	for l := range scores {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if scores[labels[i]] != scores[labels[j]] {
			return scores[labels[i]] > scores[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) == 0 {
		return Unknown, 0, Unknown, 0
	}
	best, bestScore = labels[0], scores[labels[0]]
	if len(labels) > 1 {
		second, secondScore = labels[1], scores[labels[1]]
	}
	return best, bestScore, second, secondScore
}

func (s *Splitter) reclassify(ctx context.Context, pending []ReclassifyItem) map[int]Label {
	if len(pending) == 0 || s.reclassifier == nil {
		return nil
	}
	got, err := s.reclassifier.ReclassifySections(ctx, pending)
	if err != nil {
		s.log.Warn("section reclassify skipped", "error", err, "pending", len(pending))
		return nil
	}
	if len(got) > 0 {
		s.log.Info("ambiguous sections reclassified", "resolved", len(got), "pending", len(pending))
	}
	return got
}

func labelIn(l Label, set []Label) bool {
	for _, x := range set {
		if x == l {
			return true
		}
	}
	return false
}
