// Command outcall issues a single JSON-RPC call through the replicated
// outcall pipeline and prints the agreed result.
//
// Example:
//
//	outcall -config ./config/.config.yaml \
//	  -url https://eth.example.com \
//	  -method eth_getTransactionReceipt \
//	  -params '["0xabc..."]' \
//	  -transform transform_send_transaction
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	configpkg "github.com/buildwithgrove/outcall/config"
	"github.com/buildwithgrove/outcall/outcall"
)

// defaultConfigPath will be appended to the location of
// the executable to get the full path to the config file.
const defaultConfigPath = "config/.config.yaml"

type flags struct {
	configPath       string
	url              string
	method           string
	params           string
	transform        string
	maxResponseBytes uint64
	cycles           string
}

func main() {
	f := parseFlags()

	configPath, err := getConfigPath(f.configPath)
	if err != nil {
		log.Fatalf("failed to get config path: %v", err)
	}

	config, err := configpkg.LoadOutcallConfigFromYAML(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := config.Build(ctx)
	if err != nil {
		log.Fatalf("failed to build outcall components: %v", err)
	}
	defer components.Close()

	params, err := parseParams(f.params)
	if err != nil {
		log.Fatalf("invalid -params: %v", err)
	}

	options, err := callOptions(f)
	if err != nil {
		log.Fatalf("invalid call options: %v", err)
	}

	transport := outcall.NewTransport(components.Client, f.url)
	result, err := transport.Execute(ctx, f.method, params, options)
	if err != nil {
		components.Logger.Error().Err(err).Str("rpc_method", f.method).Msg("outcall failed")
		color.Red("%s failed: %v", f.method, err)
		os.Exit(1)
	}

	fmt.Println(string(result))

	if components.Ledger != nil {
		color.Cyan("cycles charged: %s, remaining balance: %s", components.Ledger.Charged(), components.Ledger.Balance())
	}
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "override the default config path")
	flag.StringVar(&f.url, "url", "", "JSON-RPC endpoint URL")
	flag.StringVar(&f.method, "method", "", "JSON-RPC method, e.g. eth_blockNumber")
	flag.StringVar(&f.params, "params", "[]", "JSON array of positional params")
	flag.StringVar(&f.transform, "transform", outcall.DefaultTransformName, "registered transform name")
	flag.Uint64Var(&f.maxResponseBytes, "max-response-bytes", 0, "response cap, 0 uses the configured default")
	flag.StringVar(&f.cycles, "cycles", "", "cycles to attach, empty uses the estimate")
	flag.Parse()

	if f.url == "" || f.method == "" {
		flag.Usage()
		os.Exit(2)
	}
	return f
}

func parseParams(raw string) ([]json.RawMessage, error) {
	var params []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, err
	}
	return params, nil
}

func callOptions(f flags) (outcall.CallOptions, error) {
	options := outcall.CallOptions{}.WithTransformName(f.transform)
	if f.maxResponseBytes > 0 {
		options = options.WithMaxResponseBytes(f.maxResponseBytes)
	}
	if f.cycles != "" {
		cost, err := outcall.ParseCost(f.cycles)
		if err != nil {
			return outcall.CallOptions{}, err
		}
		options = options.WithCost(cost)
	}
	return options, nil
}

// getConfigPath returns the -config value, or defaultConfigPath relative
// to the executable's directory.
func getConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}

	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %v", err)
	}
	return filepath.Join(filepath.Dir(exePath), defaultConfigPath), nil
}
