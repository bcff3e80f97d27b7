package config

// Config describes one monitored source channel. One YAML file per channel,
// the Name is derived from the filename.
type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Channel  string         `yaml:"channel"` // Channel username or numeric ID
	Settings ConfigSettings `yaml:"settings"`
	Scoring  ConfigScoring  `yaml:"scoring"`
	Transfer ConfigTransfer `yaml:"transfer"`
}

type ConfigSettings struct {
	Enabled       bool `yaml:"enabled"`
	FetchLimit    int  `yaml:"fetch_limit"`    // messages pulled per ingestion pass
	ScoutLimit    int  `yaml:"scout_limit"`    // messages scanned per edit pass
	DispatchBatch int  `yaml:"dispatch_batch"` // units scored per dispatch tick
}

type ConfigScoring struct {
	Tag            string `yaml:"tag"` // score tag searched in oracle output, e.g. AD_Score
	Gap            int    `yaml:"gap"` // exclusive upper bound on an allowed score
	MaxTokens      int    `yaml:"max_tokens"`
	PromptTemplate string `yaml:"prompt_template"`
}

type ConfigTransfer struct {
	Method            string `yaml:"method"` // forwarding, reloading or smart
	RemoveCustomEmoji bool   `yaml:"remove_custom_emoji"`
}

// Transfer methods. Smart forwards unprotected content and re-uploads
// protected content.
const (
	MethodForwarding = "forwarding"
	MethodReloading  = "reloading"
	MethodSmart      = "smart"
)

// DefaultPromptTemplate is used when a channel config does not carry its own.
// Placeholders: {channel_id}, {text} and {Scoring_parameter}.
const DefaultPromptTemplate = `You are a professional adblock AI trained to identify ads of any type precisely.
Instructions:
- First, explain your reasoning about whether this message contains direct or indirect advertising.
- Pay attention to whether something is being promoted: links to large company sites, lotteries or giveaways, donation requests, incitement to subscribe to other channels.
- If a channel puts a link to its own channel at the end of the message, consider it normal practice.
- Here is a new message in channel {channel_id}: "{text}"
- As a professional you provide your judgment only and strictly in this format at the end of the message:

[{Scoring_parameter}: X]

Where X is an integer from 0 (definitely not an ad), 25 (probably indirect ad), 50 (indirect ad, but smooth or uncertain cases), 75 (likely direct ad), 100 (definitely an ad).
`
