package lorasim

// config.go declares every configuration constant enumerated in spec.md
// §6, as a yaml-tagged struct in the idiom of the teacher's desc-topo.go
// (every exported struct there carries matching json/yaml tags for
// serialization). cmd/lorasim layers this over viper defaults and CLI
// flags; the engine package itself only ever consumes a *Config value, so
// it stays usable as a library independent of cobra/viper.

// SelectionPolicyName names one of spec.md §4.5's five downlink
// gateway-selection policies.
type SelectionPolicyName string

const (
	PolicyFCFS  SelectionPolicyName = "FCFS"
	PolicyRSSI  SelectionPolicyName = "RSSI"
	PolicyLB    SelectionPolicyName = "LB"
	PolicyURCB  SelectionPolicyName = "URCB"
	PolicyFBS   SelectionPolicyName = "FBS"
)

// PacketSizeDistribution names the distribution used to sample payload
// size when FixedPacketSize is false.
type PacketSizeDistribution string

const (
	DistrUniform PacketSizeDistribution = "uniform"
	DistrNormal  PacketSizeDistribution = "normal"
)

// Config carries every spec.md §6 configuration constant plus the
// ambient run parameters (seed, horizon, terrain path) that the CLI
// gathers from flags, an optional YAML file, and built-in defaults.
type Config struct {
	PacketsPerHour     float64 `yaml:"packets_per_hour"`
	SimTimeHours       float64 `yaml:"sim_time_hours"`
	TerrainFile        string  `yaml:"terrain_file"`

	ConfirmedPerc      float64                 `yaml:"confirmed_perc"`
	FullCollision      bool                    `yaml:"full_collision"`
	MaxRetr            int                     `yaml:"max_retr"`
	FixedPacketRate    bool                    `yaml:"fixed_packet_rate"`
	FixedPacketSize    bool                    `yaml:"fixed_packet_size"`
	PacketSize         int                     `yaml:"packet_size"`
	PacketSizeDistr    PacketSizeDistribution  `yaml:"packet_size_distr"`
	ADROn              bool                    `yaml:"adr_on"`
	DoubleGWs          bool                    `yaml:"double_gws"`
	Policy             SelectionPolicyName     `yaml:"policy"`
	FreqPlan           RegionPlan              `yaml:"fplan"`

	AbstainFreeGWFrac  float64 `yaml:"abstain_free_gw_frac"`
	GatewayTxPowerDBm  float64 `yaml:"gateway_tx_power_dbm"`

	AutoStopEnabled    bool    `yaml:"auto_stop_enabled"`
	AutoStopWindow     int     `yaml:"auto_stop_window"`
	AutoStopThreshold  float64 `yaml:"auto_stop_threshold"`

	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the built-in defaults, matching the representative
// configurations named in spec.md §4.7 and §8.
func DefaultConfig() Config {
	return Config{
		ConfirmedPerc:     1.0,
		FullCollision:     true,
		MaxRetr:           8,
		FixedPacketRate:   true,
		FixedPacketSize:   true,
		PacketSize:        20,
		PacketSizeDistr:   DistrUniform,
		ADROn:             false,
		DoubleGWs:         false,
		Policy:            PolicyRSSI,
		FreqPlan:          EU868,
		AbstainFreeGWFrac: defaultAbstainFreeGWFrac,
		GatewayTxPowerDBm: 27.0,
		AutoStopEnabled:   false,
		AutoStopWindow:    100,
		AutoStopThreshold: 1e-4,
		Seed:              1,
	}
}

// Validate rejects configuration/terrain-adjacent errors spec.md §7 kind 1
// calls out explicitly: unsupported region/policy combinations.
func (c *Config) Validate() error {
	if c.FreqPlan == US915 && c.Policy == PolicyLB {
		return &ConfigError{Reason: "least-busy selection policy is not supported under US915 (no per-band duty-cycle accounting in this model)"}
	}
	if c.MaxRetr < 0 {
		return &ConfigError{Reason: "max_retr must be >= 0"}
	}
	if c.ConfirmedPerc < 0 || c.ConfirmedPerc > 1 {
		return &ConfigError{Reason: "confirmed_perc must be within [0,1]"}
	}
	if c.PacketsPerHour <= 0 {
		return &ConfigError{Reason: "packets_per_hour must be > 0"}
	}
	if c.SimTimeHours <= 0 {
		return &ConfigError{Reason: "simulation_time_hours must be > 0"}
	}
	return nil
}
