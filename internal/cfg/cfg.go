package cfg

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"time"
)

// Channel names accepted by -channel.
const (
	ChannelSMS  = "sms"
	ChannelCall = "call"
)

// Config holds the application-level configuration. Ambient concerns
// (logging, tracing, profiling, server tuning) register their own flag
// groups from go-core.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int

	PollInterval  time.Duration
	MinMagnitude  float64
	MinIntensity  int
	MaxLocalities int
	Channel       string
	MessageMaxLen int

	FeedURL       string
	EnrichmentURL string

	TargetsURL  string
	TargetsFile string

	CarrierAPIBase    string
	CarrierAccountSID string
	CarrierAuthToken  string
	CarrierFrom       string
	VoiceScriptURL    string
	PublicBaseURL     string

	SnapshotOriginURL string
	SnapshotTTL       time.Duration
	StaticOriginURL   string

	TestAlertEnabled bool
	TestAlertPIN     string

	DatabaseURL string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")

	fs.DurationVar(&c.PollInterval, "poll-interval", 60*time.Second, "interval between feed polls")
	fs.Float64Var(&c.MinMagnitude, "min-magnitude", 5.0, "minimum magnitude that triggers an alert")
	fs.IntVar(&c.MinIntensity, "min-intensity", 3, "minimum predicted intensity for a locality to be listed")
	fs.IntVar(&c.MaxLocalities, "max-localities", 6, "maximum localities listed in a message")
	fs.StringVar(&c.Channel, "channel", ChannelSMS, "notification channel: sms or call")
	fs.IntVar(&c.MessageMaxLen, "message-max-len", 480, "maximum rendered message length in bytes")

	fs.StringVar(&c.FeedURL, "feed-url", "", "event feed URL (required)")
	fs.StringVar(&c.EnrichmentURL, "enrichment-url", "", "intensity prediction service URL (required)")

	fs.StringVar(&c.TargetsURL, "targets-url", "", "target registry URL (exactly one of targets-url/targets-file)")
	fs.StringVar(&c.TargetsFile, "targets-file", "", "target registry JSON file path (exactly one of targets-url/targets-file)")

	fs.StringVar(&c.CarrierAPIBase, "carrier-api-base", "", "carrier REST API base URL (required)")
	fs.StringVar(&c.CarrierAccountSID, "carrier-account-sid", "", "carrier account SID (required)")
	fs.StringVar(&c.CarrierAuthToken, "carrier-auth-token", "", "carrier auth token (required)")
	fs.StringVar(&c.CarrierFrom, "carrier-from", "", "sender phone number in E.164 form (required)")
	fs.StringVar(&c.VoiceScriptURL, "voice-script-url", "", "voice script URL for call alerts (default: public-base-url + /twiml)")
	fs.StringVar(&c.PublicBaseURL, "public-base-url", "", "externally reachable base URL of this service")

	fs.StringVar(&c.SnapshotOriginURL, "snapshot-origin-url", "", "origin URL for the cached /public snapshot (empty = /public disabled)")
	fs.DurationVar(&c.SnapshotTTL, "snapshot-ttl", 300*time.Second, "snapshot cache lifetime")
	fs.StringVar(&c.StaticOriginURL, "static-origin-url", "", "origin URL for the /static asset proxy (empty = disabled)")

	fs.BoolVar(&c.TestAlertEnabled, "test-alert-enabled", false, "enable the GET /test-alert manual trigger")
	fs.StringVar(&c.TestAlertPIN, "test-alert-pin", "", "shared-secret PIN guarding /test-alert")

	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("invalid POLL_INTERVAL %s (must be at least 1s)", c.PollInterval))
	}
	if math.IsNaN(c.MinMagnitude) || math.IsInf(c.MinMagnitude, 0) || c.MinMagnitude < 0 {
		errs = append(errs, fmt.Errorf("invalid MIN_MAGNITUDE %v (must be a finite non-negative number)", c.MinMagnitude))
	}
	if c.MinIntensity < 0 {
		errs = append(errs, fmt.Errorf("invalid MIN_INTENSITY %d (must be non-negative)", c.MinIntensity))
	}
	if c.MaxLocalities <= 0 {
		errs = append(errs, fmt.Errorf("invalid MAX_LOCALITIES %d (must be positive)", c.MaxLocalities))
	}
	if c.Channel != ChannelSMS && c.Channel != ChannelCall {
		errs = append(errs, fmt.Errorf("invalid CHANNEL %q (must be sms or call)", c.Channel))
	}
	if c.MessageMaxLen <= 0 {
		errs = append(errs, fmt.Errorf("invalid MESSAGE_MAX_LEN %d (must be positive)", c.MessageMaxLen))
	}

	if c.FeedURL == "" {
		errs = append(errs, errors.New("FEED_URL is required"))
	}
	if c.EnrichmentURL == "" {
		errs = append(errs, errors.New("ENRICHMENT_URL is required"))
	}

	// Exactly one registry source
	if (c.TargetsURL == "") == (c.TargetsFile == "") {
		errs = append(errs, errors.New("exactly one of TARGETS_URL and TARGETS_FILE must be set"))
	}

	if c.CarrierAPIBase == "" {
		errs = append(errs, errors.New("CARRIER_API_BASE is required"))
	}
	if c.CarrierAccountSID == "" {
		errs = append(errs, errors.New("CARRIER_ACCOUNT_SID is required"))
	}
	if c.CarrierAuthToken == "" {
		errs = append(errs, errors.New("CARRIER_AUTH_TOKEN is required"))
	}
	if c.CarrierFrom == "" {
		errs = append(errs, errors.New("CARRIER_FROM is required"))
	}

	// Call alerts need a script the carrier can fetch
	if c.Channel == ChannelCall && c.VoiceScriptURL == "" && c.PublicBaseURL == "" {
		errs = append(errs, errors.New("CHANNEL call requires VOICE_SCRIPT_URL or PUBLIC_BASE_URL"))
	}

	if c.SnapshotTTL <= 0 {
		errs = append(errs, fmt.Errorf("invalid SNAPSHOT_TTL %s (must be positive)", c.SnapshotTTL))
	}

	// An enabled trigger without a PIN would be an open dispatch endpoint
	if c.TestAlertEnabled && c.TestAlertPIN == "" {
		errs = append(errs, errors.New("TEST_ALERT_ENABLED requires TEST_ALERT_PIN"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EffectiveVoiceScriptURL resolves the script URL handed to the carrier:
// the explicit flag when set, otherwise the /twiml endpoint on the public
// base URL.
func (c *Config) EffectiveVoiceScriptURL() string {
	if c.VoiceScriptURL != "" {
		return c.VoiceScriptURL
	}
	if c.PublicBaseURL != "" {
		return c.PublicBaseURL + "/twiml"
	}
	return ""
}
