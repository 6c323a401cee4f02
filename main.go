package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cryptosimchain_go/api"
	"cryptosimchain_go/blockchain"
	"cryptosimchain_go/llm"
	"cryptosimchain_go/registry"
	"cryptosimchain_go/simulation"
	"cryptosimchain_go/tokenomics"
	"cryptosimchain_go/utils"
)

// AppConfig holds all startup configuration.
type AppConfig struct {
	Port       int
	Verbose    bool
	DataDir    string
	ArchiveOn  bool
	SeedName   string
	SeedSymbol string
}

func getEnvInt(key string, defaultValue int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	valInt, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s: %s. Using default %d.", key, valStr, defaultValue)
		return defaultValue
	}
	return valInt
}

func loadConfig() *AppConfig {
	config := &AppConfig{}

	// Environment variables provide defaults; CLI flags override them.
	flag.IntVar(&config.Port, "port", getEnvInt("API_PORT", 8080), "Port for the HTTP API")
	flag.BoolVar(&config.Verbose, "verbose", os.Getenv("VERBOSE") == "true" || os.Getenv("VERBOSE") == "1", "Enable detailed logging")
	flag.StringVar(&config.DataDir, "datadir", os.Getenv("DATA_DIR"), "Directory for the optional block archive")
	flag.BoolVar(&config.ArchiveOn, "archive", os.Getenv("BLOCK_ARCHIVE") == "true", "Write sealed blocks through to a LevelDB archive")
	flag.StringVar(&config.SeedName, "seedname", os.Getenv("SEED_CRYPTO_NAME"), "Create a cryptocurrency with this name at startup")
	flag.StringVar(&config.SeedSymbol, "seedsymbol", os.Getenv("SEED_CRYPTO_SYMBOL"), "Symbol for the startup cryptocurrency")
	flag.Parse()

	if config.ArchiveOn && config.DataDir == "" {
		config.DataDir = "data"
		utils.LogInfo("Data directory not specified, using default: %s", config.DataDir)
	}
	return config
}

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	config := loadConfig()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	utils.SetVerbose(config.Verbose)

	utils.LogInfo("Crypto simulation backend starting...")

	reg := registry.NewRegistry()
	manager := simulation.NewManager(reg)
	designer := llm.NewDesigner(llm.NewProviderFromEnv())

	var archive *blockchain.ChainArchive
	if config.ArchiveOn {
		if err := os.MkdirAll(config.DataDir, 0755); err != nil {
			log.Fatalf("Error creating data directory %s: %v", config.DataDir, err)
		}
		var err error
		archive, err = blockchain.NewChainArchive(config.DataDir + "/blocks")
		if err != nil {
			log.Fatalf("Error opening block archive: %v", err)
		}
		defer archive.Close()
		utils.LogInfo("Block archive enabled at %s/blocks", config.DataDir)
	}

	// Optionally seed one cryptocurrency so the API is immediately usable.
	if config.SeedName != "" {
		symbol := config.SeedSymbol
		if symbol == "" {
			symbol = "SIM"
		}
		instance := registry.NewInstance(config.SeedName, symbol, tokenomics.DefaultConfig())
		if archive != nil {
			instance.Ledger.SetArchive(archive)
		}
		reg.Add(instance)
		utils.LogInfo("Seed cryptocurrency %s (%s) created with id %s", config.SeedName, symbol, instance.Crypto.ID)
	}

	server := api.NewServer(reg, manager, designer)
	server.Archive = archive

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(config.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		utils.LogInfo("Received signal %v, shutting down", sig)
	case err := <-serverErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	manager.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Shutdown error: %v", err)
	}
	utils.LogInfo("Shutdown complete")
}
