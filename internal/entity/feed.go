package entity

// FeedType groups feeds by the kind of content they carry.
type FeedType string

const (
	FeedTypeFacts          FeedType = "FATOS"
	FeedTypeInterpretation FeedType = "INTERPRETACAO"
	FeedTypePerception     FeedType = "PERCEPCAO"
)

// Feed is a statically configured news or video feed.
type Feed struct {
	Name string   `mapstructure:"name" json:"name"`
	URL  string   `mapstructure:"url" json:"url"`
	Type FeedType `mapstructure:"type" json:"type"`
}

// FeedItem is one entry of a fetched feed. Link is its canonical identifier.
type FeedItem struct {
	Link    string
	Title   string
	Summary string
	Feed    string
}
