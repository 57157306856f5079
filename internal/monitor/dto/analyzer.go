package dto

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang-news-signal/internal/entity"
)

// AnalysisErrorReason is the reason attached to a defaulted verdict.
const AnalysisErrorReason = "analysis error"

// Verdict is the validated analyzer result for one ticker.
type Verdict struct {
	Signal        entity.Action    `json:"signal"`
	Sentiment     entity.Sentiment `json:"sentiment"`
	ImpactPercent int              `json:"impact_percent"`
	Reason        string           `json:"reason"`
}

// DefaultVerdict is used whenever analyzer output cannot be trusted.
func DefaultVerdict() Verdict {
	return Verdict{
		Signal:    entity.ActionHold,
		Sentiment: entity.SentimentNeutral,
		Reason:    AnalysisErrorReason,
	}
}

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)*`)

// ParseVerdict converts raw analyzer text into a Verdict. The boolean is false
// when the text was not a usable JSON object and the default verdict was returned.
// Individual unexpected fields are defaulted without failing the whole verdict.
func ParseVerdict(text string) (Verdict, bool) {
	body := extractJSON(text, '{', '}')
	if body == "" {
		return DefaultVerdict(), false
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return DefaultVerdict(), false
	}
	raw = lowerKeys(raw)

	v := Verdict{
		Signal:    entity.ParseAction(stringValue(raw["signal"])),
		Sentiment: entity.ParseSentiment(stringValue(raw["sentiment"])),
		Reason:    strings.TrimSpace(stringValue(raw["reason"])),
	}
	if impact, ok := raw["impact"]; ok {
		v.ImpactPercent = ParseImpact(impact)
	} else {
		v.ImpactPercent = ParseImpact(raw["impact_percent"])
	}
	return v, true
}

// ParseImpact extracts a signed integer percentage from a JSON number or a
// free-form string such as "+3.5%". Anything unparsable yields 0.
func ParseImpact(value interface{}) int {
	switch v := value.(type) {
	case float64:
		return roundPercent(v)
	case string:
		match := numberPattern.FindString(v)
		if match == "" {
			return 0
		}
		f, err := strconv.ParseFloat(normalizeDecimal(match), 64)
		if err != nil {
			return 0
		}
		return roundPercent(f)
	default:
		return 0
	}
}

// normalizeDecimal rewrites a number written with "." or "," separators into Go
// float syntax. With both present the last one is the decimal mark; a lone
// separator kind is a decimal mark only when it occurs once.
func normalizeDecimal(s string) string {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") == 1 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case dot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func roundPercent(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 1e6 {
		return 0
	}
	return int(math.Round(f))
}

// ParseTickers converts raw matcher text into validated ticker symbols. The
// boolean is false when no JSON array could be decoded.
func ParseTickers(text string) ([]string, bool) {
	body := extractJSON(text, '[', ']')
	if body == "" {
		return nil, false
	}

	var raw []interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, false
	}

	seen := make(map[string]struct{}, len(raw))
	tickers := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		t := NormalizeTicker(s)
		if !ValidTicker(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	return tickers, true
}

// NormalizeTicker upper-cases and trims a ticker.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidTicker accepts alphanumeric symbols of at least four characters that contain a digit (PETR4, BPAC11).
func ValidTicker(t string) bool {
	if len(t) < 4 {
		return false
	}
	hasDigit := false
	for _, r := range t {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return hasDigit
}

// extractJSON strips markdown fences and returns the outermost open..close span.
func extractJSON(text string, open, close byte) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func lowerKeys(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
