package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/ttpr0/go-walkshed/snapping"
	"github.com/ttpr0/go-walkshed/util"
)

//*******************************************
// run report
//*******************************************

type BatchReport struct {
	Name     string  `yaml:"name"`
	Break    float64 `yaml:"break"`
	Selected int     `yaml:"selected"`
	Snapped  int     `yaml:"snapped"`
	Emitted  int     `yaml:"emitted"`
	Dropped  int     `yaml:"dropped"`
	Empty    int     `yaml:"empty"`
	Error    string  `yaml:"error,omitempty"`
}

type SnapFailureReport struct {
	OriginID string  `yaml:"origin_id"`
	Batch    string  `yaml:"batch"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
}

type LayerReport struct {
	Name           string  `yaml:"name"`
	FeaturesBefore int     `yaml:"features_before"`
	FeaturesAfter  int     `yaml:"features_after"`
	AreaBefore     float64 `yaml:"area_before"`
	AreaAfter      float64 `yaml:"area_after"`
}

// Report summarizes one run. Excluded origins are listed apart from the produced isochrones.
type Report struct {
	RunID    string    `yaml:"run_id"`
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished,omitempty"`

	Batches           []BatchReport       `yaml:"batches,omitempty"`
	Isochrones        int                 `yaml:"isochrones"`
	DroppedDuplicates int                 `yaml:"dropped_duplicates"`
	SnapFailures      []SnapFailureReport `yaml:"snap_failures,omitempty"`
	EmptyOrigins      []string            `yaml:"empty_origins,omitempty"`
	FailedBatches     []string            `yaml:"failed_batches,omitempty"`

	MaskArea float64       `yaml:"mask_area,omitempty"`
	Layers   []LayerReport `yaml:"layers,omitempty"`
}

func NewReport() *Report {
	return &Report{
		RunID:   uuid.New().String(),
		Started: time.Now(),
	}
}

func (self *Report) AddSnapFailures(batch string, failures []*snapping.SnapFailure) {
	for _, f := range failures {
		self.SnapFailures = append(self.SnapFailures, SnapFailureReport{
			OriginID: f.OriginID,
			Batch:    batch,
			X:        f.X,
			Y:        f.Y,
		})
	}
}

// Write stores the finished report as yaml.
func (self *Report) Write(file string) error {
	self.Finished = time.Now()
	return util.WriteYAMLToFile(*self, file)
}
