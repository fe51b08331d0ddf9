package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Options struct {
	runAddr        string
	logLevel       string
	catalogAPIURL  string
	catalogTimeout time.Duration
	pageLimit      int
	searchDebounce time.Duration
	cartDBPath     string
	dataBaseDSN    string
	redisURI       string
}

func NewOptions() *Options {
	return new(Options)
}

// ParseFlags handles command line arguments
// and stores their values in the corresponding variables.
func (o *Options) ParseFlags() {
	// Load environment variables from the .env file
	loadEnvFile()

	// Override variable values with values from command line flags
	regStringVar(&o.runAddr, "a", getEnvOrDefault("RUN_ADDRESS", ":8080"), "address and port to run server")
	regStringVar(&o.logLevel, "l", getEnvOrDefault("LOG_LEVEL", "debug"), "log level")
	regStringVar(&o.catalogAPIURL, "c", getEnvOrDefault("CATALOG_API_URL", "https://dummyjson.com"), "base URL of the remote catalog API")
	regStringVar(&o.cartDBPath, "f", getEnvOrDefault("CART_DB_PATH", "cart.db"), "path to the local cart database file")
	regStringVar(&o.dataBaseDSN, "d", getEnvOrDefault("DATABASE_URI", ""), "database connection string")
	regStringVar(&o.redisURI, "r", getEnvOrDefault("REDIS_URI", ""), "redis connection string")
	flag.DurationVar(&o.catalogTimeout, "t", getEnvDurationOrDefault("CATALOG_TIMEOUT", 10*time.Second), "timeout for remote catalog calls")
	flag.DurationVar(&o.searchDebounce, "s", getEnvDurationOrDefault("SEARCH_DEBOUNCE", 500*time.Millisecond), "debounce interval for search-as-you-type")
	flag.IntVar(&o.pageLimit, "p", getEnvIntOrDefault("PAGE_LIMIT", 10), "catalog page size")

	// parse the arguments passed to the server into registered variables
	flag.Parse()
}

func (o *Options) RunAddr() string {
	return o.runAddr
}

func (o *Options) LogLevel() string {
	return o.logLevel
}

func (o *Options) CatalogAPIURL() string {
	return o.catalogAPIURL
}

func (o *Options) CatalogTimeout() time.Duration {
	return o.catalogTimeout
}

func (o *Options) PageLimit() int {
	return o.pageLimit
}

func (o *Options) SearchDebounce() time.Duration {
	return o.searchDebounce
}

func (o *Options) CartDBPath() string {
	return o.cartDBPath
}

func (o *Options) DataBaseDSN() string {
	return o.dataBaseDSN
}

func (o *Options) RedisURI() string {
	return o.redisURI
}

func regStringVar(p *string, name string, value string, usage string) {
	flag.StringVar(p, name, value, usage)
}

// getEnvOrDefault reads an environment variable or returns a default value if the variable is not set or is empty.
func getEnvOrDefault(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid value %q for %s, using default %d", value, key, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid value %q for %s, using default %s", value, key, defaultValue)
		return defaultValue
	}
	return d
}

// loadEnvFile loads environment variables from a .env file
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	envPath := filepath.Join(cwd, ".env")

	if err := godotenv.Load(envPath); err != nil {
		log.Printf("No .env file found at %s, proceeding without it", envPath)
	}
}
