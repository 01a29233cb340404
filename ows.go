package main

/* ows is a web server publishing the Sentinel-2 biophysical
   retrievals (FAPAR and LAI) as WPS processes. Products are
   defined in config.json documents, one per namespace under the
   config directory. Execute requests carry the reflectance bands
   and either the acquisition angles or enough information for the
   metadata API to find them. Tiles are evaluated on the worker
   nodes listed in the config, or in-process when there are none. */

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	"github.com/nci/biopar/biopar"
	"github.com/nci/biopar/metrics"
	proc "github.com/nci/biopar/processor"
	"github.com/nci/biopar/utils"
	"github.com/pkg/errors"

	_ "net/http/pprof"
)

// Global variable to hold the values specified
// on the config.json documents.
var configMap map[string]*utils.Config

var (
	port            = flag.Int("p", 8080, "Server listening port.")
	serverDataDir   = flag.String("data_dir", utils.DataDir, "Server data directory.")
	serverConfigDir = flag.String("conf_dir", utils.EtcDir, "Server config directory.")
	serverLogDir    = flag.String("log_dir", "", "Server log directory.")
	validateConfig  = flag.Bool("check_conf", false, "Validate server config files.")
	dumpConfig      = flag.Bool("dump_conf", false, "Dump server config files.")
	verbose         = flag.Bool("v", false, "Verbose mode for more server outputs.")
)

var reWPSMap = utils.CompileWPSRegexMap()

var renderer = utils.NewTemplateRenderer(utils.DataDir)

var (
	Error = log.New(os.Stderr, "OWS: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info  = log.New(os.Stdout, "OWS: ", log.Ldate|log.Ltime|log.Lshortfile)
)

var metricsLogger metrics.Logger

// setup loads the config files and the metrics logger.
// This is the first function to be called in main.
func setup() {
	rand.Seed(time.Now().UnixNano())

	flag.Parse()

	utils.DataDir = *serverDataDir
	utils.EtcDir = *serverConfigDir
	renderer = utils.NewTemplateRenderer(utils.DataDir)

	confMap, err := utils.LoadAllConfigFiles(utils.EtcDir)
	if err != nil {
		Error.Printf("Error in loading config files: %v\n", err)
		panic(err)
	}

	if *validateConfig {
		os.Exit(0)
	}

	if *dumpConfig {
		configJson, err := json.MarshalIndent(confMap, "", "  ")
		if err != nil {
			Error.Printf("Error in dumping configs: %v\n", err)
		} else {
			log.Print(string(configJson))
		}
		os.Exit(0)
	}

	configMap = confMap

	utils.WatchConfig(Info, Error, &configMap)

	if len(*serverLogDir) > 0 {
		if *serverLogDir == "-" {
			metricsLogger = metrics.NewStdoutLogger()
		} else {
			maxLogFileSize := int64(0)
			if val, ok := os.LookupEnv("BIOPAR_MAX_LOG_FILE_SIZE"); ok {
				valInt, e := strconv.ParseInt(val, 10, 64)
				if e == nil {
					maxLogFileSize = valInt
				} else {
					Error.Printf("invalid BIOPAR_MAX_LOG_FILE_SIZE: %v", e)
				}
			}

			maxLogFiles := -1
			if val, ok := os.LookupEnv("BIOPAR_MAX_LOG_FILES"); ok {
				valInt, e := strconv.ParseInt(val, 10, 32)
				if e == nil {
					maxLogFiles = int(valInt)
				} else {
					Error.Printf("invalid BIOPAR_MAX_LOG_FILES: %v", e)
				}
			}

			metricsLogger = metrics.NewFileLogger(*serverLogDir, maxLogFileSize, maxLogFiles, *verbose)
		}
	}
}

// errorStatus maps retrieval errors to HTTP status codes. Bad variants,
// band expressions and raster shapes are the caller's fault.
func errorStatus(err error) int {
	if biopar.IsConfigurationError(err) || biopar.IsInputShapeError(err) {
		return 400
	}
	return 500
}

func wpsException(w http.ResponseWriter, code string, status int, msg string, metricsCollector *metrics.MetricsCollector) {
	metricsCollector.Info.HTTPStatus = status
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	err := renderer.Render(w, utils.ServiceExceptionTemplate, &utils.ServiceException{Code: code, Message: msg})
	if err != nil {
		Error.Printf("failed to render service exception: %v", err)
	}
}

func serviceURL(conf *utils.Config, r *http.Request, namespace string) string {
	host := conf.ServiceConfig.OWSHostname
	if len(host) == 0 {
		host = r.Host
	}
	return fmt.Sprintf("http://%s%s", host, path.Join("/ows", namespace))
}

func serveWPS(ctx context.Context, params utils.WPSParams, conf *utils.Config, namespace string, r *http.Request, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {
	if params.Request == nil {
		wpsException(w, "MissingParameterValue", 400, "Malformed WPS, a Request field needs to be specified", metricsCollector)
		return
	}

	reqURL := r.URL.String()

	switch *params.Request {
	case "GetCapabilities":
		data := &utils.CapabilitiesData{URL: serviceURL(conf, r, namespace), Products: conf.Products}
		w.Header().Set("Content-Type", "application/xml")
		err := renderer.Render(w, utils.GetCapabilitiesTemplate, data)
		if err != nil {
			metricsCollector.Info.HTTPStatus = 500
			http.Error(w, err.Error(), 500)
		}
	case "DescribeProcess":
		idx, err := utils.GetProductIndex(params, conf)
		if err != nil {
			Error.Printf("Requested process not found: %v, %v\n", err, reqURL)
			wpsException(w, "InvalidParameterValue", 400, fmt.Sprintf("%v: %s", err, reqURL), metricsCollector)
			return
		}
		desc, err := utils.NewProcessDescription(conf.Products[idx])
		if err != nil {
			wpsException(w, "NoApplicableCode", 500, err.Error(), metricsCollector)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		err = renderer.Render(w, utils.DescribeProcessTemplate, desc)
		if err != nil {
			metricsCollector.Info.HTTPStatus = 500
			http.Error(w, err.Error(), 500)
		}
	case "Execute":
		if r.Method != "POST" {
			wpsException(w, "OperationNotSupported", 400, "WPS Execute expects a POST request with a JSON body", metricsCollector)
			return
		}
		idx, err := utils.GetProductIndex(params, conf)
		if err != nil {
			Error.Printf("Requested process not found: %v, %v\n", err, reqURL)
			wpsException(w, "InvalidParameterValue", 400, fmt.Sprintf("%v: %s", err, reqURL), metricsCollector)
			return
		}
		execute(ctx, &conf.Products[idx], conf, r, w, metricsCollector)
	default:
		wpsException(w, "OperationNotSupported", 400, fmt.Sprintf("%s not recognised.", *params.Request), metricsCollector)
	}
}

func execute(ctx context.Context, product *utils.Product, conf *utils.Config, r *http.Request, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {
	execReq, err := utils.ParseExecuteRequest(r.Body, product.MaxPixels)
	if err != nil {
		wpsException(w, "InvalidParameterValue", 400, err.Error(), metricsCollector)
		return
	}

	payLoad, err := proc.NewConfigPayLoad(product)
	if err != nil {
		wpsException(w, "NoApplicableCode", errorStatus(err), err.Error(), metricsCollector)
		return
	}

	sources, err := execReq.SourceValues()
	if err != nil {
		wpsException(w, "InvalidParameterValue", 400, err.Error(), metricsCollector)
		return
	}

	req := &proc.RetrievalRequest{
		ConfigPayLoad: payLoad,
		Collection:    product.Collection,
		Height:        execReq.Height,
		Width:         execReq.Width,
		Sources:       sources,
		SceneID:       execReq.SceneID,
	}
	if execReq.Angles != nil {
		angles := execReq.Angles.SceneAngles()
		req.Angles = &angles
	}
	if len(execReq.Footprint) > 0 {
		// validated by ParseExecuteRequest
		req.FootprintWKT, _ = execReq.FootprintWKT()
	}
	if len(execReq.Time) > 0 {
		t, _ := time.Parse(time.RFC3339, execReq.Time)
		req.Time = &t
	}

	ctx, ctxCancel := context.WithCancel(ctx)
	defer ctxCancel()
	errChan := make(chan error, 100)

	dp := proc.InitRetrievalPipeline(ctx, conf.ServiceConfig.MASAddress, conf.ServiceConfig.WorkerNodes, errChan)
	dp.Metrics = metricsCollector

	res, err := dp.Retrieve(req, *verbose)
	if err != nil {
		Error.Printf("%s: %v\n", product.Name, err)
		wpsException(w, "NoApplicableCode", errorStatus(err), fmt.Sprintf("%v", errors.Cause(err)), metricsCollector)
		return
	}

	decileCount := product.DecileCount
	if decileCount == 0 {
		decileCount = utils.DefaultDecileCount
	}
	stats := utils.ComputeStats(res, decileCount)

	ri := metricsCollector.Info.Retrieval
	ri.Product = product.Name
	ri.Variant = res.Variant
	ri.Height = res.Height
	ri.Width = res.Width
	ri.NumPixels = res.Height * res.Width
	ri.Stats = stats

	out, err := json.Marshal(&utils.ExecuteResponse{
		Product:   product.Name,
		Variant:   res.Variant,
		Parameter: res.Parameter,
		Height:    res.Height,
		Width:     res.Width,
		NoData:    res.NoData,
		Values:    res.Data,
		Stats:     stats,
	})
	if err != nil {
		metricsCollector.Info.HTTPStatus = 500
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
}

func generalHandler(conf *utils.Config, namespace string, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	if *verbose {
		Info.Printf("%s\n", r.URL.String())
	}
	ctx := r.Context()

	metricsCollector := metrics.NewMetricsCollector(metricsLogger)
	defer metricsCollector.Log()

	t0 := time.Now()
	metricsCollector.Info.ReqTime = t0.Format(utils.ISOFormat)
	defer func() { metricsCollector.Info.ReqDuration = time.Since(t0) }()

	reqUrl, e := url.QueryUnescape(r.URL.String())
	if e == nil {
		metricsCollector.Info.URL.RawURL = reqUrl
	} else {
		metricsCollector.Info.URL.RawURL = r.URL.String()
	}

	metricsCollector.Info.RemoteAddr = r.RemoteAddr
	if host, port, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		metricsCollector.Info.RemoteHost = host
		metricsCollector.Info.RemotePort = port
	}
	metricsCollector.Info.HTTPStatus = 200

	query, err := utils.ParseQuery(r.URL.RawQuery)
	if err != nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("Failed to parse query: %v", err), 400)
		return
	}

	if r.Method == "POST" {
		if _, hasReq := query["request"]; !hasReq {
			query["request"] = []string{"Execute"}
		}
	}

	if _, fOK := query["service"]; !fOK {
		canInferService := false
		if request, hasReq := query["request"]; hasReq {
			reqService := map[string]string{
				"DescribeProcess": "WPS",
				"Execute":         "WPS",
			}
			if service, found := reqService[request[0]]; found {
				query["service"] = []string{service}
				canInferService = true
			}
		}

		if !canInferService {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Not a OWS request. Request does not contain a 'service' parameter."), 400)
			return
		}
	}

	switch query["service"][0] {
	case "WPS":
		params, err := utils.WPSParamsChecker(query, reWPSMap)
		if err != nil {
			wpsException(w, "InvalidParameterValue", 400, fmt.Sprintf("Wrong WPS parameters on URL: %s", err), metricsCollector)
			return
		}
		serveWPS(ctx, params, conf, namespace, r, w, metricsCollector)
	default:
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("Not a valid OWS request. URL %s does not contain a valid 'service' parameter.", r.URL.String()), 400)
		return
	}
}

func owsHandler(w http.ResponseWriter, r *http.Request) {
	namespace := "."
	if len(r.URL.Path) > len("/ows/") {
		namespace = strings.TrimSuffix(r.URL.Path[len("/ows/"):], "/")
	}
	config, ok := configMap[namespace]
	if !ok {
		Info.Printf("Invalid dataset namespace: %v for url: %v\n", namespace, r.URL.Path)
		http.Error(w, fmt.Sprintf("Invalid dataset namespace: %v\n", namespace), 404)
		return
	}
	if namespace == "." {
		namespace = ""
	}
	generalHandler(config, namespace, w, r)
}

func fileHandler(w http.ResponseWriter, r *http.Request) {
	upath := r.URL.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
		r.URL.Path = upath
	}
	upath = path.Clean(upath)
	upath = filepath.Join(utils.DataDir+"/static", upath)

	if *verbose {
		Info.Printf("%s -> %s\n", r.URL.String(), upath)
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	http.ServeFile(w, r, upath)
}

func main() {
	setup()

	http.HandleFunc("/", fileHandler)
	http.HandleFunc("/ows", owsHandler)
	http.HandleFunc("/ows/", owsHandler)

	lis, err := reuseport.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", *port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	Info.Printf("biopar OWS is ready")
	log.Fatal(http.Serve(lis, nil))
}
