package utils

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderCapabilities(t *testing.T) {
	tr := NewTemplateRenderer("/nonexistent")

	data := &CapabilitiesData{
		URL: "http://biopar.example.org/ows",
		Products: []Product{
			{Name: "s2_fapar", Title: "FAPAR", Variant: "fapar8"},
			{Name: "s2_lai", Title: "LAI & friends", Variant: "lai3"},
		},
	}
	var buf bytes.Buffer
	if err := tr.Render(&buf, GetCapabilitiesTemplate, data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"<ows:Identifier>s2_fapar</ows:Identifier>", "<ows:Identifier>s2_lai</ows:Identifier>", "LAI &amp; friends"} {
		if !strings.Contains(out, s) {
			t.Errorf("GetCapabilities does not contain %s:\n%s", s, out)
		}
	}
}

func TestRenderDescribeProcess(t *testing.T) {
	tr := NewTemplateRenderer("/nonexistent")

	product := Product{Name: "s2_fapar3", Variant: "fapar3", NoDataValue: -9999}
	desc, err := NewProcessDescription(product)
	if err != nil {
		t.Fatal(err)
	}
	if len(desc.Bands) != 3 || desc.Bands[2].Ceiling != "unbounded" || desc.Parameter != "FAPAR" {
		t.Errorf("process description test failed: %+v", desc)
	}

	var buf bytes.Buffer
	if err := tr.Render(&buf, DescribeProcessTemplate, desc); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"<ows:Identifier>B8</ows:Identifier>", "&lt;= 0.26", "<ows:Identifier>FAPAR</ows:Identifier>"} {
		if !strings.Contains(out, s) {
			t.Errorf("DescribeProcess does not contain %s:\n%s", s, out)
		}
	}

	if _, err := NewProcessDescription(Product{Name: "x", Variant: "fcover"}); err == nil {
		t.Errorf("unknown variant should fail")
	}
}

func TestRenderTemplateOverride(t *testing.T) {
	dataDir, err := ioutil.TempDir("", "biopar_data")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dataDir)

	os.MkdirAll(filepath.Join(dataDir, "templates"), 0755)
	tpl := `custom {{ .Code }}: {{ .Message }}`
	ioutil.WriteFile(filepath.Join(dataDir, "templates", ServiceExceptionTemplate), []byte(tpl), 0644)

	tr := NewTemplateRenderer(dataDir)
	var buf bytes.Buffer
	if err := tr.Render(&buf, ServiceExceptionTemplate, &ServiceException{Code: "InvalidParameterValue", Message: "a<b"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "custom InvalidParameterValue: a&lt;b" {
		t.Errorf("template override test failed: %s", buf.String())
	}

	if err := tr.Render(&buf, "missing.tpl", nil); err == nil {
		t.Errorf("missing template should fail")
	}
}
