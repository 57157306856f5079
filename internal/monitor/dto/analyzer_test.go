package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"golang-news-signal/internal/entity"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Verdict
		wantOK bool
	}{
		{
			name:   "FencedJSON",
			input:  "```json\n{\"signal\": \"BUY\", \"sentiment\": \"POSITIVE\", \"impact\": \"+3.5%\", \"reason\": \"Dividendos recordes\"}\n```",
			want:   Verdict{Signal: entity.ActionBuy, Sentiment: entity.SentimentPositive, ImpactPercent: 4, Reason: "Dividendos recordes"},
			wantOK: true,
		},
		{
			name:   "NotANumberImpact",
			input:  `{"signal": "SELL", "sentiment": "NEGATIVE", "impact": "not-a-number%", "reason": "x"}`,
			want:   Verdict{Signal: entity.ActionSell, Sentiment: entity.SentimentNegative, ImpactPercent: 0, Reason: "x"},
			wantOK: true,
		},
		{
			name:   "NumericImpactAndUpperKeys",
			input:  `Here you go: {"Signal": "sell", "Impact": -2.5, "Reason": "queda"} thanks`,
			want:   Verdict{Signal: entity.ActionSell, Sentiment: entity.SentimentNeutral, ImpactPercent: -3, Reason: "queda"},
			wantOK: true,
		},
		{
			name:   "UnknownSignalIsHold",
			input:  `{"signal": "BUY/SELL/HOLD", "sentiment": "meh", "impact": "2%", "reason": 42}`,
			want:   Verdict{Signal: entity.ActionHold, Sentiment: entity.SentimentNeutral, ImpactPercent: 2, Reason: ""},
			wantOK: true,
		},
		{
			name:  "NotJSON",
			input: "I cannot analyze this.",
			want:  DefaultVerdict(),
		},
		{
			name:  "BrokenJSON",
			input: `{"signal": "BUY", "impact": }`,
			want:  DefaultVerdict(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseVerdict(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultVerdict(t *testing.T) {
	v := DefaultVerdict()
	assert.Equal(t, entity.ActionHold, v.Signal)
	assert.Equal(t, entity.SentimentNeutral, v.Sentiment)
	assert.Equal(t, AnalysisErrorReason, v.Reason)
	assert.Zero(t, v.ImpactPercent)
}

func TestParseImpact(t *testing.T) {
	assert.Equal(t, 0, ParseImpact("not-a-number%"))
	assert.Equal(t, -4, ParseImpact("-3,6%"))
	assert.Equal(t, 2, ParseImpact("entre +2% e +5%"))
	assert.Equal(t, 7, ParseImpact(float64(7)))
	assert.Equal(t, 0, ParseImpact(nil))
	assert.Equal(t, 0, ParseImpact(true))
	assert.Equal(t, 0, ParseImpact("99999999%"))
}

func TestParseImpact_Separators(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"+3.5%", 4},
		{"2,4%", 2},
		{"1,234.5%", 1235},
		{"1.234,5%", 1235},
		{"-1,250%", -1},
		{"12.345.678%", 0},
		{"1,234,567%", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseImpact(tt.in))
		})
	}
}

func TestParseTickers(t *testing.T) {
	got, ok := ParseTickers("```json\n[\"petr4\", \"VALE3\", \"IBOV\", \"PETR4\", 12, \"BPAC11\", \"B3SA3 \"]\n```")
	assert.True(t, ok)
	assert.Equal(t, []string{"PETR4", "VALE3", "BPAC11", "B3SA3"}, got)

	got, ok = ParseTickers("[]")
	assert.True(t, ok)
	assert.Empty(t, got)

	_, ok = ParseTickers("no companies found")
	assert.False(t, ok)
}

func TestValidTicker(t *testing.T) {
	assert.True(t, ValidTicker("WEGE3"))
	assert.False(t, ValidTicker("SPX"))
	assert.False(t, ValidTicker("ABCD"))
	assert.False(t, ValidTicker("PET-4"))
}
