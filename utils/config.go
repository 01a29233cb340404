package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nci/biopar/biopar"
)

var EtcDir = "."
var DataDir = "."

type ServiceConfig struct {
	OWSHostname string   `json:"ows_hostname"`
	MASAddress  string   `json:"mas_address"`
	WorkerNodes []string `json:"worker_nodes"`
}

// Product contains all the details that a retrieval product needs
// to be published and processed
type Product struct {
	OWSHostname string `json:"ows_hostname"`
	NameSpace   string
	Name        string `json:"name"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	// Variant is one of fapar8, fapar3, lai8 or lai3.
	Variant     string  `json:"variant"`
	Collection  string  `json:"collection"`
	ScaleFactor float64 `json:"scale_factor"`
	NoDataValue float64 `json:"nodata_value"`
	// BandExpressions maps the variant bands onto source namespaces. When
	// empty every band is read from a namespace of the same name.
	BandExpressions    map[string]string `json:"band_expressions"`
	TileRows           int               `json:"tile_rows"`
	GrpcConcLimit      int               `json:"grpc_conc_limit"`
	MaxGrpcRecvMsgSize int               `json:"max_grpc_recv_msg_size"`
	MaxPixels          int               `json:"max_pixels"`
	DecileCount        int               `json:"decile_count"`

	bandExprs *BandExpressions
}

// Config is the struct representing the configuration
// of a retrieval server. It contains information about the
// metadata API and the worker nodes as well as the list of
// products that can be served.
type Config struct {
	ServiceConfig ServiceConfig `json:"service_config"`
	Products      []Product     `json:"products"`
}

// string used to format Go ISO times
const ISOFormat = "2006-01-02T15:04:05.000Z"

const (
	DefaultTileRows      = 256
	DefaultGrpcConcLimit = 16
	DefaultRecvMsgSize   = 16 * 1024 * 1024
	DefaultMaxPixels     = 10980 * 10980
)

func LoadAllConfigFiles(rootDir string) (map[string]*Config, error) {
	configMap := make(map[string]*Config)
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && info.Name() == "config.json" {
			relPath, _ := filepath.Rel(rootDir, filepath.Dir(path))
			log.Printf("Loading config file: %s under namespace: %s\n", path, relPath)

			config := &Config{}
			e := config.LoadConfigFile(path)
			if e != nil {
				return e
			}

			configMap[relPath] = config

			for i := range config.Products {
				ns := relPath
				if relPath == "." {
					ns = ""
				}
				config.Products[i].NameSpace = ns
			}
		}
		return nil
	})

	if err == nil && len(configMap) == 0 {
		err = fmt.Errorf("No config file found")
	}

	return configMap, err
}

// LoadConfigFile marshalls the config.json document returning an
// instance of a Config variable containing all the values
func (config *Config) LoadConfigFile(configFile string) error {
	*config = Config{}
	cfg, err := ioutil.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
	}

	err = json.Unmarshal(cfg, config)
	if err != nil {
		return fmt.Errorf("Error at JSON parsing config document: %s. Error: %v", configFile, err)
	}
	return config.init()
}

func (config *Config) init() error {
	names := make(map[string]bool)
	for i := range config.Products {
		product := &config.Products[i]
		if len(product.Name) == 0 {
			return fmt.Errorf("Product %d has no name", i)
		}
		if names[product.Name] {
			return fmt.Errorf("Product %s is defined twice", product.Name)
		}
		names[product.Name] = true

		product.OWSHostname = config.ServiceConfig.OWSHostname
		if product.ScaleFactor <= 0 {
			product.ScaleFactor = biopar.DefaultScaleFactor
		}
		if product.NoDataValue == 0 {
			product.NoDataValue = biopar.DefaultNoData
		}
		if product.TileRows <= 0 {
			product.TileRows = DefaultTileRows
		}
		if product.GrpcConcLimit <= 0 {
			product.GrpcConcLimit = DefaultGrpcConcLimit
		}
		if product.MaxGrpcRecvMsgSize <= 0 {
			product.MaxGrpcRecvMsgSize = DefaultRecvMsgSize
		}
		if product.MaxPixels <= 0 {
			product.MaxPixels = DefaultMaxPixels
		}
		if product.DecileCount < 0 {
			product.DecileCount = 0
		}

		variant, err := biopar.Variant(product.Variant)
		if err != nil {
			return fmt.Errorf("Product %s: %v", product.Name, err)
		}

		if len(product.BandExpressions) == 0 {
			product.bandExprs = IdentityBandExpressions(variant.Bands())
			continue
		}
		product.bandExprs, err = ParseBandExpressions(product.BandExpressions)
		if err != nil {
			return fmt.Errorf("Product %s: %v", product.Name, err)
		}
		for _, band := range variant.Bands() {
			if !product.bandExprs.Has(band) {
				return fmt.Errorf("Product %s: no band expression for %s required by variant %s", product.Name, band, variant.Name())
			}
		}
	}
	return nil
}

// VariantConfig resolves the network the product runs.
func (p *Product) VariantConfig() (*biopar.VariantConfig, error) {
	return biopar.Variant(p.Variant)
}

// GetBandExpressions returns the compiled band expressions, identity
// expressions when the product was not loaded from a config file.
func (p *Product) GetBandExpressions() (*BandExpressions, error) {
	if p.bandExprs != nil {
		return p.bandExprs, nil
	}
	cfg, err := p.VariantConfig()
	if err != nil {
		return nil, err
	}
	if len(p.BandExpressions) == 0 {
		return IdentityBandExpressions(cfg.Bands()), nil
	}
	return ParseBandExpressions(p.BandExpressions)
}

func WatchConfig(infoLog, errLog *log.Logger, configMap *map[string]*Config) {
	// Catch SIGHUP to automatically reload cache
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-sighup:
				infoLog.Println("Caught SIGHUP, reloading config...")
				confMap, err := LoadAllConfigFiles(EtcDir)
				if err != nil {
					errLog.Printf("Error in loading config files: %v\n", err)
					continue
				}

				for k := range *configMap {
					delete(*configMap, k)
				}

				for k := range confMap {
					(*configMap)[k] = confMap[k]
				}
			}
		}
	}()
}
