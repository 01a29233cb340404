package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	proc "github.com/nci/biopar/processor"
	"github.com/nci/biopar/utils"
	"golang.org/x/crypto/ssh/terminal"
)

var wps_caps string = "http://%s/ows?service=WPS&request=GetCapabilities&version=1.0.0"
var wps_descr string = "http://%s/ows?service=WPS&request=DescribeProcess&version=1.0.0&identifier=%s"
var wps_exec string = "http://%s/ows?service=WPS&request=Execute&identifier=%s"
var passed string = "Passed"
var failed string = "Failed"

func Capabilities(reqURL string) bool {
	resp, err := http.Get(reqURL)
	if err != nil {
		log.Printf("%s: %v", reqURL, err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == 200
}

// Execute posts every payload under payloadDir with at most concLevel
// requests in flight.
func Execute(host, product, payloadDir string, concLevel int) (bool, int, time.Duration) {
	start := time.Now()

	files, err := filepath.Glob(filepath.Join(payloadDir, "*.json"))
	if err != nil {
		log.Fatal(err)
	}

	conc := proc.NewConcLimiter(concLevel)
	results := make(chan bool, len(files))
	for _, fPath := range files {
		conc.Increase()
		go func(fPath string) {
			defer conc.Decrease()
			results <- QueryExecute(fmt.Sprintf(wps_exec, host, product), fPath)
		}(fPath)
	}
	conc.Wait()
	close(results)

	out := true
	for res := range results {
		if !res {
			out = false
		}
	}
	return out, len(files), time.Since(start)
}

// QueryExecute posts one payload and checks that the answer covers the
// requested raster.
func QueryExecute(reqURL, fileName string) bool {
	f, err := os.Open(fileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	var shape struct {
		Height int `json:"height"`
		Width  int `json:"width"`
	}
	if err := json.NewDecoder(f).Decode(&shape); err != nil {
		log.Printf("%s: %v", fileName, err)
		return false
	}
	f.Seek(0, 0)

	resp, err := http.Post(reqURL, "application/json", f)
	if err != nil {
		log.Printf("%s: %v", fileName, err)
		return false
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != 200 {
		fmt.Println(fileName, string(body))
		return false
	}

	var result utils.ExecuteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("%s: %v", fileName, err)
		return false
	}
	return len(result.Values) == shape.Height*shape.Width && result.Stats.Count+result.Stats.Masked == len(result.Values)
}

func inRed(str string) string {
	return fmt.Sprintf("\x1b[31;1m%s\x1b[0m", str)
}

func inGreen(str string) string {
	return fmt.Sprintf("\x1b[32;1m%s\x1b[0m", str)
}

func main() {
	host := flag.String("h", "localhost:8080", "OWS host name or address")
	product := flag.String("p", "s2_fapar", "WPS process identifier")
	payloads := flag.String("d", "execute_requests", "Directory of Execute JSON payloads")
	conc := flag.Int("n", 6, "Concurrency level for acceptance tests")
	flag.Parse()

	if terminal.IsTerminal(int(os.Stdout.Fd())) {
		passed = inGreen(passed)
		failed = inRed(failed)
	}

	fmt.Printf("Testing WPS GetCapabilities: ")
	if !Capabilities(fmt.Sprintf(wps_caps, *host)) {
		fmt.Println(failed)
		os.Exit(1)
	}
	fmt.Println(passed)

	fmt.Printf("Testing WPS DescribeProcess %s: ", *product)
	if !Capabilities(fmt.Sprintf(wps_descr, *host, *product)) {
		fmt.Println(failed)
		os.Exit(1)
	}
	fmt.Println(passed)

	fmt.Printf("Testing WPS Execute %s: ", *product)
	ok, n, t := Execute(*host, *product, *payloads, *conc)
	if !ok {
		fmt.Println(failed)
		os.Exit(1)
	}
	fmt.Println(passed, n, "requests", t)
}
