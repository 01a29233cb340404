package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/edisonguo/jet"
)

const (
	GetCapabilitiesTemplate  = "WPS_GetCapabilities.tpl"
	DescribeProcessTemplate  = "WPS_DescribeProcess.tpl"
	ServiceExceptionTemplate = "WPS_ServiceException.tpl"
)

var defaultTemplates = map[string]string{
	GetCapabilitiesTemplate: `<?xml version="1.0" encoding="UTF-8"?>
<wps:Capabilities service="WPS" version="1.0.0" xml:lang="en-US" xmlns:xlink="http://www.w3.org/1999/xlink" xmlns:wps="http://www.opengis.net/wps/1.0.0" xmlns:ows="http://www.opengis.net/ows/1.1">
  <ows:ServiceIdentification>
    <ows:Title>Sentinel-2 biophysical parameters</ows:Title>
    <ows:ServiceType>WPS</ows:ServiceType>
    <ows:ServiceTypeVersion>1.0.0</ows:ServiceTypeVersion>
  </ows:ServiceIdentification>
  <ows:OperationsMetadata>
    <ows:Operation name="GetCapabilities"><ows:DCP><ows:HTTP><ows:Get xlink:href="{{ .URL }}"/></ows:HTTP></ows:DCP></ows:Operation>
    <ows:Operation name="DescribeProcess"><ows:DCP><ows:HTTP><ows:Get xlink:href="{{ .URL }}"/></ows:HTTP></ows:DCP></ows:Operation>
    <ows:Operation name="Execute"><ows:DCP><ows:HTTP><ows:Post xlink:href="{{ .URL }}"/></ows:HTTP></ows:DCP></ows:Operation>
  </ows:OperationsMetadata>
  <wps:ProcessOfferings>
{{- range i, p := .Products }}
    <wps:Process wps:processVersion="1.0.0">
      <ows:Identifier>{{ p.Name }}</ows:Identifier>
      <ows:Title>{{ p.Title }}</ows:Title>
      <ows:Abstract>{{ p.Abstract }}</ows:Abstract>
    </wps:Process>
{{- end }}
  </wps:ProcessOfferings>
</wps:Capabilities>
`,
	DescribeProcessTemplate: `<?xml version="1.0" encoding="UTF-8"?>
<wps:ProcessDescriptions service="WPS" version="1.0.0" xml:lang="en-US" xmlns:wps="http://www.opengis.net/wps/1.0.0" xmlns:ows="http://www.opengis.net/ows/1.1">
  <ProcessDescription wps:processVersion="1.0.0" storeSupported="false" statusSupported="false">
    <ows:Identifier>{{ .Product.Name }}</ows:Identifier>
    <ows:Title>{{ .Product.Title }}</ows:Title>
    <ows:Abstract>{{ .Product.Abstract }}</ows:Abstract>
    <ows:Metadata ows:title="variant">{{ .Product.Variant }}</ows:Metadata>
    <ows:Metadata ows:title="parameter">{{ .Parameter }}</ows:Metadata>
    <DataInputs>
{{- range i, b := .Bands }}
      <Input minOccurs="1" maxOccurs="1">
        <ows:Identifier>{{ b.Name }}</ows:Identifier>
        <ows:Title>{{ b.Expression }}</ows:Title>
        <ows:Abstract>valid when reflectance {{ b.Ceiling }}</ows:Abstract>
        <LiteralData><ows:DataType>float</ows:DataType></LiteralData>
      </Input>
{{- end }}
      <Input minOccurs="0" maxOccurs="1">
        <ows:Identifier>angles</ows:Identifier>
        <ows:Title>view_zenith, sun_zenith, sun_azimuth, view_azimuth in degrees</ows:Title>
        <LiteralData><ows:DataType>float</ows:DataType></LiteralData>
      </Input>
    </DataInputs>
    <ProcessOutputs>
      <Output>
        <ows:Identifier>{{ .Parameter }}</ows:Identifier>
        <ows:Title>{{ .Parameter }} with nodata {{ .Product.NoDataValue }}</ows:Title>
        <ComplexOutput><Default><Format><MimeType>application/json</MimeType></Format></Default></ComplexOutput>
      </Output>
    </ProcessOutputs>
  </ProcessDescription>
</wps:ProcessDescriptions>
`,
	ServiceExceptionTemplate: `<?xml version="1.0" encoding="UTF-8"?>
<ows:ExceptionReport xmlns:ows="http://www.opengis.net/ows/1.1" version="1.0.0">
  <ows:Exception exceptionCode="{{ .Code }}">
    <ows:ExceptionText>{{ .Message }}</ows:ExceptionText>
  </ows:Exception>
</ows:ExceptionReport>
`,
}

// TemplateRenderer renders the WPS documents. Templates found under
// <DataDir>/templates override the built-in ones.
type TemplateRenderer struct {
	set  *jet.Set
	dir  string
	lock sync.Mutex
}

func NewTemplateRenderer(dataDir string) *TemplateRenderer {
	dir := filepath.Join(dataDir, "templates")
	return &TemplateRenderer{
		set: jet.NewSet(jet.SafeWriter(func(w io.Writer, b []byte) {
			template.HTMLEscape(w, b)
		}), dir),
		dir: dir,
	}
}

func (tr *TemplateRenderer) template(name string) (*jet.Template, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, err := os.Stat(filepath.Join(tr.dir, name)); err == nil {
		return tr.set.GetTemplate(name)
	}

	content, found := defaultTemplates[name]
	if !found {
		return nil, fmt.Errorf("template %s not found", name)
	}
	return tr.set.LoadTemplate(name, content)
}

// Render executes the named template and writes it to w.
func (tr *TemplateRenderer) Render(w io.Writer, name string, data interface{}) error {
	tpl, err := tr.template(name)
	if err != nil {
		return fmt.Errorf("Error trying to parse template document: %v", err)
	}

	var buf bytes.Buffer
	vars := make(jet.VarMap)
	if err = tpl.Execute(&buf, vars, data); err != nil {
		return fmt.Errorf("Error executing template: %v", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// CapabilitiesData is the context of the GetCapabilities template.
type CapabilitiesData struct {
	URL      string
	Products []Product
}

type BandDescription struct {
	Name       string
	Expression string
	Ceiling    string
}

// ProcessDescription is the context of the DescribeProcess template.
type ProcessDescription struct {
	Product   Product
	Parameter string
	Bands     []BandDescription
}

func NewProcessDescription(product Product) (*ProcessDescription, error) {
	cfg, err := product.VariantConfig()
	if err != nil {
		return nil, err
	}

	desc := &ProcessDescription{Product: product, Parameter: string(cfg.Parameter())}
	thresholds := cfg.Thresholds()
	for _, band := range cfg.Bands() {
		bd := BandDescription{Name: band, Expression: band, Ceiling: "unbounded"}
		if product.bandExprs != nil && product.bandExprs.Has(band) {
			bd.Expression = product.bandExprs.Expression(band)
		}
		if ceiling, found := thresholds[band]; found {
			bd.Ceiling = fmt.Sprintf("<= %v", ceiling)
		}
		desc.Bands = append(desc.Bands, bd)
	}
	return desc, nil
}

type ServiceException struct {
	Code    string
	Message string
}
