// Package models holds the persistent data types owned by the agent
// runtime: Agent, Personality, StyleGuide, Behavior, Mood, MemoryItem,
// Relationship, Event, TradingSafetyState and TokenLaunchState.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// JSONB is a generic JSON document column, used for opaque metadata and
// event payloads that don't warrant their own typed columns.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("models: JSONB.Scan: type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, j)
}

// EmojiFrequency is the enumerated hashtag/emoji cadence a StyleGuide
// may request.
type EmojiFrequency string

const (
	EmojiNone     EmojiFrequency = "none"
	EmojiRare     EmojiFrequency = "rare"
	EmojiModerate EmojiFrequency = "moderate"
	EmojiFrequent EmojiFrequency = "frequent"
)

// Capitalization is the enumerated capitalization mode a StyleGuide may
// request.
type Capitalization string

const (
	CapStandard  Capitalization = "standard"
	CapAllCaps   Capitalization = "all_caps"
	CapTitleCase Capitalization = "title_case"
	CapLowercase Capitalization = "lowercase"
)

// SentenceLength is the enumerated sentence-length policy.
type SentenceLength string

const (
	SentenceShort  SentenceLength = "short"
	SentenceMedium SentenceLength = "medium"
	SentenceLong   SentenceLength = "long"
	SentenceVaried SentenceLength = "varied"
)

// Voice is the enumerated narrative voice for a Personality.
type Voice string

const (
	VoiceFirstPerson Voice = "first_person"
	VoiceThirdPerson Voice = "third_person"
	VoiceCollective  Voice = "collective"
)

// Tone is the enumerated tone for a Personality/StyleGuide.
type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneCasual       Tone = "casual"
	ToneTechnical    Tone = "technical"
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
	ToneSarcastic    Tone = "sarcastic"
	ToneEnthusiastic Tone = "enthusiastic"
)

// TechnicalJargon controls how freely an agent uses domain jargon.
type TechnicalJargon string

const (
	JargonAvoid            TechnicalJargon = "avoid"
	JargonExplainWhenUsed  TechnicalJargon = "explain_when_used"
	JargonUseFreely        TechnicalJargon = "use_freely"
)

// TradeDecisionFactor is one element of the set a Behavior.Trading
// record may draw on when deciding whether/what to trade.
type TradeDecisionFactor string

const (
	FactorTrendingTokens  TradeDecisionFactor = "trending_tokens"
	FactorTopGainers      TradeDecisionFactor = "top_gainers"
	FactorRandomSelection TradeDecisionFactor = "random_selection"
	FactorMood            TradeDecisionFactor = "mood"
)

// Personality is immutable after an agent is loaded from configuration.
type Personality struct {
	Traits          []string `yaml:"traits" json:"traits"`     // <=20
	Values          []string `yaml:"values" json:"values"`     // <=10
	SpeakingStyle   string   `yaml:"speaking_style" json:"speaking_style"`
	Interests       []string `yaml:"interests" json:"interests"` // <=15
	Quirks          []string `yaml:"quirks" json:"quirks"`
	Voice           Voice    `yaml:"voice" json:"voice"`
	Tone            Tone     `yaml:"tone" json:"tone"`
	EmotionalRange  [3]float64 `yaml:"emotional_range_defaults" json:"emotional_range_defaults"` // default VAD
}

// StyleGuide governs surface-level rendering of generated text.
type StyleGuide struct {
	Voice            Voice           `yaml:"voice" json:"voice"`
	Tone             Tone            `yaml:"tone" json:"tone"`
	EmojiFrequency   EmojiFrequency  `yaml:"emoji_frequency" json:"emoji_frequency"`
	Capitalization   Capitalization  `yaml:"capitalization" json:"capitalization"`
	SentenceLength   SentenceLength  `yaml:"sentence_length" json:"sentence_length"`
	TechnicalJargon  TechnicalJargon `yaml:"technical_jargon" json:"technical_jargon"`
	ForbiddenTopics  []string        `yaml:"forbidden_topics" json:"forbidden_topics"`
	LanguageConstraints []string     `yaml:"language_constraints" json:"language_constraints"`
}

// PostFrequency describes the self-initiated posting rhythm.
type PostFrequency struct {
	MinHours  float64 `yaml:"min_hours" json:"min_hours"`
	MaxHours  float64 `yaml:"max_hours" json:"max_hours"`
	PeakHours []int   `yaml:"peak_hours" json:"peak_hours"` // hour-of-day, 0-23
	Timezone  string  `yaml:"timezone" json:"timezone"`
}

// InteractionPatterns describes probabilities of reacting to a mention.
type InteractionPatterns struct {
	ReplyProbability    float64 `yaml:"reply_probability" json:"reply_probability"`
	QuoteProbability    float64 `yaml:"quote_probability" json:"quote_probability"`
	LikeProbability     float64 `yaml:"like_probability" json:"like_probability"`
	RetweetProbability  float64 `yaml:"retweet_probability" json:"retweet_probability"`
	MentionDelayMinMins int     `yaml:"mention_delay_min_minutes" json:"mention_delay_min_minutes"`
	MentionDelayMaxMins int     `yaml:"mention_delay_max_minutes" json:"mention_delay_max_minutes"`
}

// TradingBehavior describes the swap-decision rhythm and bounds.
type TradingBehavior struct {
	Enabled                  bool                  `yaml:"enabled" json:"enabled"`
	MinHoursBetweenTrades    float64               `yaml:"min_hours_between_trades" json:"min_hours_between_trades"`
	MaxHoursBetweenTrades    float64               `yaml:"max_hours_between_trades" json:"max_hours_between_trades"`
	RandomProbability        float64               `yaml:"random_probability" json:"random_probability"`
	DecisionFactors          []TradeDecisionFactor `yaml:"decision_factors" json:"decision_factors"`
	TweetOnTradeProbability  float64               `yaml:"tweet_on_trade_probability" json:"tweet_on_trade_probability"`
	MaxTradeAmountPerTx      float64               `yaml:"max_trade_amount_per_transaction" json:"max_trade_amount_per_transaction"`
	MaxDailyTrades           int                   `yaml:"max_daily_trades" json:"max_daily_trades"`
	MaxDailyVolume           float64               `yaml:"max_daily_volume" json:"max_daily_volume"`
	MinWalletBalance         float64               `yaml:"min_wallet_balance" json:"min_wallet_balance"`
	InitialWalletBalance     float64               `yaml:"initial_wallet_balance" json:"initial_wallet_balance"`
	MaxSlippagePercent       float64               `yaml:"max_slippage_percent" json:"max_slippage_percent"`
	AllowedTokens            []string              `yaml:"allowed_tokens" json:"allowed_tokens"`
	BlacklistedTokens        []string              `yaml:"blacklisted_tokens" json:"blacklisted_tokens"`
	IgnoreHumanTradingReqs   bool                  `yaml:"ignore_human_trading_requests" json:"ignore_human_trading_requests"`
	SimulationMode           bool                  `yaml:"simulation_mode" json:"simulation_mode"`
}

// Behavior bundles the configurable activity rhythm of an agent.
type Behavior struct {
	PostFrequency       PostFrequency        `yaml:"post_frequency" json:"post_frequency"`
	Interaction         InteractionPatterns  `yaml:"interaction_patterns" json:"interaction_patterns"`
	Trading             TradingBehavior      `yaml:"trading" json:"trading"`
	PostIntroOnFirstBoot bool                `yaml:"post_intro_on_first_boot" json:"post_intro_on_first_boot"`
}

// MentionIngestionMode selects how an agent discovers mentions.
// "auto" implements the spec's recommended default: prefer stream,
// fall back to poll on elevated-access failure.
type MentionIngestionMode string

const (
	IngestionStream MentionIngestionMode = "stream"
	IngestionPoll   MentionIngestionMode = "poll"
	IngestionAuto   MentionIngestionMode = "auto"
)

// Credentials holds the resolved per-platform secrets for an agent.
// Never serialized in API responses (see internal/api's summary view).
type Credentials struct {
	TwitterAPIKey            string `json:"-"`
	TwitterAPISecret         string `json:"-"`
	TwitterAccessToken       string `json:"-"`
	TwitterAccessTokenSecret string `json:"-"`
	TwitterBearerToken       string `json:"-"`
	SolanaPrivateKey         string `json:"-"`
}

// Agent is the persistent identity a single Agent Runtime actor owns
// exclusively: its Mood, MemoryItem set, Relationships,
// TradingSafetyState and TokenLaunchState are never shared with any
// other agent.
type Agent struct {
	ID                    string               `gorm:"primaryKey;size:64" yaml:"id" json:"id"`
	DisplayName           string               `gorm:"size:128" yaml:"name" json:"name"`
	Description           string               `gorm:"type:text" yaml:"description" json:"description"`
	Personality           Personality          `gorm:"-" yaml:"personality" json:"personality"`
	Style                 StyleGuide           `gorm:"-" yaml:"style_guide" json:"style_guide"`
	Behavior              Behavior             `gorm:"-" yaml:"behavior" json:"behavior"`
	CustomSystemPrompt    string               `yaml:"custom_system_prompt" json:"custom_system_prompt,omitempty"`
	RotatingSystemPrompts pq.StringArray       `gorm:"type:text[]" yaml:"rotating_system_prompts" json:"rotating_system_prompts,omitempty"` // <=8
	LLMProvider           string               `yaml:"llm_provider" json:"llm_provider"`
	MentionIngestionMode  MentionIngestionMode `yaml:"mention_ingestion_mode" json:"mention_ingestion_mode"`
	Credentials           Credentials          `gorm:"-" yaml:"-" json:"-"`

	LastPostTime time.Time `json:"last_post_time"`
	Mood         Mood      `gorm:"-" json:"mood"`
	Active       bool      `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the GORM table name for Agent.
func (Agent) TableName() string { return "agents" }

// Summary is the secret-free public view returned by the Control API.
type Summary struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"name"`
	Description  string    `json:"description"`
	Active       bool      `json:"active"`
	LastPostTime time.Time `json:"last_post_time"`
	Mood         Mood      `json:"mood"`
}

// ToSummary projects an Agent to its secret-free public view.
func (a *Agent) ToSummary() Summary {
	return Summary{
		ID:           a.ID,
		DisplayName:  a.DisplayName,
		Description:  a.Description,
		Active:       a.Active,
		LastPostTime: a.LastPostTime,
		Mood:         a.Mood,
	}
}
