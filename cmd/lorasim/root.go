package main

// root.go wires cobra flags and viper config-file/default layering onto
// lorasim.Config, in the idiom of the teacher's
// cmd/chirpstack-network-server/cmd/root.go: a package-level rootCmd,
// viper.SetDefault calls in init(), a cobra.OnInitialize hook to load an
// optional config file, and a RunE that does the actual work. Exit codes
// follow spec.md §7: 0 on success, 1 on a configuration/terrain error
// (kind 1), 2 on a physical-unreachability error (kind 2).

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lorasim/lorasim"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "lorasim packets_per_hour simulation_time_hours terrain_file",
	Short: "discrete-event simulator for LoRaWAN network capacity studies",
	Args:  cobra.ExactArgs(3),
	RunE:  run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "panic, fatal, error, warn, info, debug, or trace")

	rootCmd.Flags().Float64("confirmed-perc", 1.0, "fraction of nodes sending confirmed uplinks")
	rootCmd.Flags().Bool("full-collision", true, "enable non-orthogonal-SF capture testing")
	rootCmd.Flags().Int("max-retr", 8, "maximum uplink retransmissions before a packet is dropped")
	rootCmd.Flags().Bool("fixed-packet-rate", true, "use a fixed interarrival time instead of exponential")
	rootCmd.Flags().Bool("fixed-packet-size", true, "use a fixed payload size instead of a sampled distribution")
	rootCmd.Flags().Int("packet-size", 20, "payload size in bytes")
	rootCmd.Flags().String("packet-size-distr", "uniform", "uniform or normal, when fixed-packet-size is false")
	rootCmd.Flags().Bool("adr", false, "enable adaptive data rate power stepping")
	rootCmd.Flags().Bool("double-gws", false, "double the gateway count generated for this terrain")
	rootCmd.Flags().String("policy", "RSSI", "downlink gateway-selection policy: FCFS, RSSI, LB, URCB, or FBS")
	rootCmd.Flags().String("region", "EU868", "EU868 or US915")
	rootCmd.Flags().Float64("abstain-free-gw-frac", 2.0/3.0, "URCB/FBS abstention threshold")
	rootCmd.Flags().Float64("gateway-tx-power-dbm", 27.0, "gateway downlink transmit power")
	rootCmd.Flags().Bool("auto-stop", false, "stop early once the windowed PDR has stabilized")
	rootCmd.Flags().Int("auto-stop-window", 100, "number of uplinks in the PDR stabilization window")
	rootCmd.Flags().Float64("auto-stop-threshold", 1e-4, "PDR stddev threshold for auto-stop")
	rootCmd.Flags().Int64("seed", 1, "RNG seed")

	viper.BindPFlag("confirmed_perc", rootCmd.Flags().Lookup("confirmed-perc"))
	viper.BindPFlag("full_collision", rootCmd.Flags().Lookup("full-collision"))
	viper.BindPFlag("max_retr", rootCmd.Flags().Lookup("max-retr"))
	viper.BindPFlag("fixed_packet_rate", rootCmd.Flags().Lookup("fixed-packet-rate"))
	viper.BindPFlag("fixed_packet_size", rootCmd.Flags().Lookup("fixed-packet-size"))
	viper.BindPFlag("packet_size", rootCmd.Flags().Lookup("packet-size"))
	viper.BindPFlag("packet_size_distr", rootCmd.Flags().Lookup("packet-size-distr"))
	viper.BindPFlag("adr", rootCmd.Flags().Lookup("adr"))
	viper.BindPFlag("double_gws", rootCmd.Flags().Lookup("double-gws"))
	viper.BindPFlag("policy", rootCmd.Flags().Lookup("policy"))
	viper.BindPFlag("region", rootCmd.Flags().Lookup("region"))
	viper.BindPFlag("abstain_free_gw_frac", rootCmd.Flags().Lookup("abstain-free-gw-frac"))
	viper.BindPFlag("gateway_tx_power_dbm", rootCmd.Flags().Lookup("gateway-tx-power-dbm"))
	viper.BindPFlag("auto_stop", rootCmd.Flags().Lookup("auto-stop"))
	viper.BindPFlag("auto_stop_window", rootCmd.Flags().Lookup("auto-stop-window"))
	viper.BindPFlag("auto_stop_threshold", rootCmd.Flags().Lookup("auto-stop-threshold"))
	viper.BindPFlag("seed", rootCmd.Flags().Lookup("seed"))

	viper.SetDefault("confirmed_perc", 1.0)
	viper.SetDefault("full_collision", true)
	viper.SetDefault("max_retr", 8)
	viper.SetDefault("fixed_packet_rate", true)
	viper.SetDefault("fixed_packet_size", true)
	viper.SetDefault("packet_size", 20)
	viper.SetDefault("packet_size_distr", "uniform")
	viper.SetDefault("adr", false)
	viper.SetDefault("double_gws", false)
	viper.SetDefault("policy", "RSSI")
	viper.SetDefault("region", "EU868")
	viper.SetDefault("abstain_free_gw_frac", 2.0/3.0)
	viper.SetDefault("gateway_tx_power_dbm", 27.0)
	viper.SetDefault("auto_stop", false)
	viper.SetDefault("auto_stop_window", 100)
	viper.SetDefault("auto_stop_threshold", 1e-4)
	viper.SetDefault("seed", 1)
}

// fileConfig holds the result of decoding --config, layered under the CLI
// flags in run(): defaults, then the YAML file's fields, then any flag the
// user actually passed.
var fileConfig lorasim.Config

func initConfig() {
	if cfgFile == "" {
		return
	}
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		logrus.WithError(err).WithField("config", cfgFile).Fatal("error reading configuration file")
	}
	fileConfig = lorasim.DefaultConfig()
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		logrus.WithError(err).WithField("config", cfgFile).Fatal("error parsing configuration file")
	}
}

// Execute runs the root command; any error returned by run is logged and
// mapped to an exit code, since cobra itself has no notion of spec.md's
// kind-1/kind-2 distinction.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	var cfgErr *lorasim.ConfigError
	var terrErr *lorasim.TerrainError
	var unreachErr *lorasim.UnreachableNodeError

	switch {
	case errors.As(err, &cfgErr), errors.As(err, &terrErr):
		return 1
	case errors.As(err, &unreachErr):
		return 2
	default:
		return 1
	}
}

func run(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return &lorasim.ConfigError{Reason: fmt.Sprintf("invalid log level %q", logLevel)}
	}
	logrus.SetLevel(level)
	log := logrus.WithField("component", "lorasim")

	packetsPerHour, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return &lorasim.ConfigError{Reason: fmt.Sprintf("invalid packets_per_hour %q", args[0])}
	}
	simHours, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return &lorasim.ConfigError{Reason: fmt.Sprintf("invalid simulation_time_hours %q", args[1])}
	}
	terrainFile := args[2]

	cfg := fileConfig
	if cfgFile == "" {
		cfg = lorasim.DefaultConfig()
	}
	cfg.PacketsPerHour = packetsPerHour
	cfg.SimTimeHours = simHours
	cfg.TerrainFile = terrainFile

	// flags the caller actually passed take precedence over the config
	// file's values; untouched flags leave the file's (or default's)
	// value in place.
	flags := cmd.Flags()
	if flags.Changed("confirmed-perc") {
		cfg.ConfirmedPerc = viper.GetFloat64("confirmed_perc")
	}
	if flags.Changed("full-collision") {
		cfg.FullCollision = viper.GetBool("full_collision")
	}
	if flags.Changed("max-retr") {
		cfg.MaxRetr = viper.GetInt("max_retr")
	}
	if flags.Changed("fixed-packet-rate") {
		cfg.FixedPacketRate = viper.GetBool("fixed_packet_rate")
	}
	if flags.Changed("fixed-packet-size") {
		cfg.FixedPacketSize = viper.GetBool("fixed_packet_size")
	}
	if flags.Changed("packet-size") {
		cfg.PacketSize = viper.GetInt("packet_size")
	}
	if flags.Changed("packet-size-distr") {
		cfg.PacketSizeDistr = lorasim.PacketSizeDistribution(viper.GetString("packet_size_distr"))
	}
	if flags.Changed("adr") {
		cfg.ADROn = viper.GetBool("adr")
	}
	if flags.Changed("double-gws") {
		cfg.DoubleGWs = viper.GetBool("double_gws")
	}
	if flags.Changed("policy") {
		cfg.Policy = lorasim.SelectionPolicyName(viper.GetString("policy"))
	}
	if flags.Changed("region") {
		if viper.GetString("region") == "US915" {
			cfg.FreqPlan = lorasim.US915
		} else {
			cfg.FreqPlan = lorasim.EU868
		}
	}
	if flags.Changed("abstain-free-gw-frac") {
		cfg.AbstainFreeGWFrac = viper.GetFloat64("abstain_free_gw_frac")
	}
	if flags.Changed("gateway-tx-power-dbm") {
		cfg.GatewayTxPowerDBm = viper.GetFloat64("gateway_tx_power_dbm")
	}
	if flags.Changed("auto-stop") {
		cfg.AutoStopEnabled = viper.GetBool("auto_stop")
	}
	if flags.Changed("auto-stop-window") {
		cfg.AutoStopWindow = viper.GetInt("auto_stop_window")
	}
	if flags.Changed("auto-stop-threshold") {
		cfg.AutoStopThreshold = viper.GetFloat64("auto_stop_threshold")
	}
	if flags.Changed("seed") {
		cfg.Seed = viper.GetInt64("seed")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	f, err := os.Open(cfg.TerrainFile)
	if err != nil {
		return &lorasim.TerrainError{Reason: err.Error()}
	}
	defer f.Close()

	terrain, err := lorasim.ParseTerrain(f)
	if err != nil {
		return err
	}

	var stats *lorasim.Stats
	func() {
		defer func() {
			if r := recover(); r != nil {
				if ue, ok := r.(*lorasim.UnreachableNodeError); ok {
					err = ue
					return
				}
				panic(r)
			}
		}()
		eng := lorasim.NewEngine(cfg, terrain, log)
		stats = eng.Run()
	}()
	if err != nil {
		return err
	}

	log.Info(stats.Report())
	fmt.Println(stats.Report())
	return nil
}
