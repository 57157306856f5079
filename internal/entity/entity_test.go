package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionBuy, ParseAction(" buy "))
	assert.Equal(t, ActionSell, ParseAction("SELL"))
	assert.Equal(t, ActionHold, ParseAction("BUY/SELL/HOLD"))
	assert.Equal(t, ActionHold, ParseAction(""))
	assert.True(t, ActionSell.Actionable())
	assert.False(t, ActionHold.Actionable())
}

func TestParseSentiment(t *testing.T) {
	assert.Equal(t, SentimentPositive, ParseSentiment("positive"))
	assert.Equal(t, SentimentNeutral, ParseSentiment("bullish"))
}

func TestPreferenceSets(t *testing.T) {
	p := Preference{AllowList: NewTickerSet("PETR4"), DenyList: NewTickerSet("VALE3")}
	assert.True(t, p.Allows("PETR4"))
	assert.False(t, p.Allows("VALE3"))
	assert.True(t, p.Denies("VALE3"))
	assert.False(t, Preference{}.Denies("VALE3"))
}

func TestHeartbeatAge(t *testing.T) {
	now := time.Unix(1_000, 0)
	hb := Heartbeat{LastUpdate: 940}
	assert.Equal(t, time.Minute, hb.Age(now))
}
