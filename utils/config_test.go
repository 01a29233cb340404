package utils

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nci/biopar/biopar"
)

func writeConfig(t *testing.T, dir, content string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const testConfig = `{
  "service_config": {"ows_hostname": "biopar.example.org", "mas_address": "127.0.0.1:8888"},
  "products": [
    {"name": "s2_fapar", "title": "FAPAR", "variant": "fapar8"},
    {
      "name": "s2_lai_10m",
      "variant": "LAI-3",
      "scale_factor": 0.0002,
      "nodata_value": -1,
      "tile_rows": 64,
      "band_expressions": {"B3": "nbart_green", "B4": "nbart_red", "B8": "nbart_nir_1 / 2"}
    }
  ]
}`

func TestLoadAllConfigFiles(t *testing.T) {
	root, err := ioutil.TempDir("", "biopar_conf")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(root)

	writeConfig(t, root, testConfig)
	writeConfig(t, filepath.Join(root, "sentinel2"), `{"products": [{"name": "s2_lai", "variant": "lai8"}]}`)

	confMap, err := LoadAllConfigFiles(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(confMap) != 2 {
		t.Fatalf("expecting 2 namespaces, actual %v", len(confMap))
	}

	conf := confMap["."]
	fapar := conf.Products[0]
	if fapar.NameSpace != "" || fapar.OWSHostname != "biopar.example.org" {
		t.Errorf("namespace/hostname test failed: %+v", fapar)
	}
	if fapar.ScaleFactor != biopar.DefaultScaleFactor || fapar.NoDataValue != biopar.DefaultNoData {
		t.Errorf("default scale/nodata test failed: %+v", fapar)
	}
	if fapar.TileRows != DefaultTileRows || fapar.MaxGrpcRecvMsgSize != DefaultRecvMsgSize || fapar.GrpcConcLimit != DefaultGrpcConcLimit {
		t.Errorf("default sizes test failed: %+v", fapar)
	}
	be, err := fapar.GetBandExpressions()
	if err != nil {
		t.Fatal(err)
	}
	if len(be.VarList()) != 8 || be.Expression("B8A") != "B8A" {
		t.Errorf("identity expressions test failed: %v", be.VarList())
	}

	lai := conf.Products[1]
	if lai.ScaleFactor != 0.0002 || lai.NoDataValue != -1 || lai.TileRows != 64 {
		t.Errorf("explicit values test failed: %+v", lai)
	}
	cfg, err := lai.VariantConfig()
	if err != nil || cfg.Name() != "lai3" {
		t.Errorf("variant alias test failed: %v %v", cfg, err)
	}

	if confMap["sentinel2"].Products[0].NameSpace != "sentinel2" {
		t.Errorf("sub namespace test failed: %+v", confMap["sentinel2"].Products[0])
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	root, err := ioutil.TempDir("", "biopar_conf")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(root)

	tests := map[string]string{
		"unknown variant": `{"products": [{"name": "x", "variant": "fcover"}]}`,
		"missing band":    `{"products": [{"name": "x", "variant": "fapar3", "band_expressions": {"B3": "g", "B4": "r"}}]}`,
		"bad expression":  `{"products": [{"name": "x", "variant": "fapar3", "band_expressions": {"B3": "g +", "B4": "r", "B8": "n"}}]}`,
		"duplicate":       `{"products": [{"name": "x", "variant": "fapar3"}, {"name": "x", "variant": "lai3"}]}`,
		"no name":         `{"products": [{"variant": "fapar3"}]}`,
		"bad json":        `{"products": [`,
	}
	for name, content := range tests {
		writeConfig(t, root, content)
		config := &Config{}
		err := config.LoadConfigFile(filepath.Join(root, "config.json"))
		if err == nil {
			t.Errorf("%s: expecting an error", name)
		}
	}

	empty, _ := ioutil.TempDir("", "biopar_empty")
	defer os.RemoveAll(empty)
	_, err = LoadAllConfigFiles(empty)
	if err == nil || !strings.Contains(err.Error(), "No config file found") {
		t.Errorf("empty dir test failed: %v", err)
	}
}
