package processor

import (
	"time"

	"github.com/nci/biopar/biopar"
	"github.com/nci/biopar/utils"
)

// ConfigPayLoad carries the product settings every stage needs.
type ConfigPayLoad struct {
	Product            string
	Variant            *biopar.VariantConfig
	ScaleFactor        float64
	NoData             float64
	BandExprs          *utils.BandExpressions
	TileRows           int
	GrpcConcLimit      int
	MaxGrpcRecvMsgSize int
}

// NewConfigPayLoad resolves a configured product.
func NewConfigPayLoad(product *utils.Product) (ConfigPayLoad, error) {
	variant, err := product.VariantConfig()
	if err != nil {
		return ConfigPayLoad{}, err
	}
	bandExprs, err := product.GetBandExpressions()
	if err != nil {
		return ConfigPayLoad{}, err
	}
	return ConfigPayLoad{
		Product:            product.Name,
		Variant:            variant,
		ScaleFactor:        product.ScaleFactor,
		NoData:             product.NoDataValue,
		BandExprs:          bandExprs,
		TileRows:           product.TileRows,
		GrpcConcLimit:      product.GrpcConcLimit,
		MaxGrpcRecvMsgSize: product.MaxGrpcRecvMsgSize,
	}, nil
}

// RetrievalRequest is one scene to retrieve. Sources holds the decoded
// namespaces with NoData already mapped to NaN. When Angles is nil the
// scene indexer resolves them from SceneID or FootprintWKT.
type RetrievalRequest struct {
	ConfigPayLoad
	Collection    string
	Height, Width int
	Sources       map[string][]float64
	Angles        *biopar.SceneAngles
	SceneID       string
	FootprintWKT  string
	Time          *time.Time

	// set by the band composer
	Raster *biopar.Raster
}

// RetrievalTile is a block of consecutive rows of a scene.
type RetrievalTile struct {
	ConfigPayLoad
	Raster      *biopar.Raster
	Angles      biopar.SceneAngles
	OffY        int
	Index       int
	NumTiles    int
	SceneHeight int
	SceneWidth  int
	AcquiredAt  *time.Time
}

type TileResult struct {
	Tile   *RetrievalTile
	Result *biopar.ParameterRaster
}
