package ports

import (
	"context"
	"image"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
)

// Rasterizer turns one vector asset into a raster image of the given width.
type Rasterizer interface {
	Rasterize(ctx context.Context, vector []byte, width int) (image.Image, error)
}

// GIFEncoder encodes an ordered list of frames into an infinitely looping GIF.
// Implementations quantize each frame to at most 256 colors.
type GIFEncoder interface {
	Encode(frames []image.Image, delaysMs []int) ([]byte, error)
}

// RenderJob is a fully specified render handed to a remote worker.
type RenderJob struct {
	TokenID           int                 `json:"tokenId"`
	Generation        int                 `json:"generation"`
	SkinType          string              `json:"skinType"`
	FinalTraits       domain.TraitSet     `json:"finalTraits"`
	AppliedSerum      string              `json:"appliedSerum,omitempty"`
	SerumSuccess      bool                `json:"serumSuccess"`
	HasAdrianGFSerum  bool                `json:"hasAdrianGFSerum"`
	SerumHistory      []domain.SerumEvent `json:"serumHistory,omitempty"`
	FailedSerumType   string              `json:"failedSerumType,omitempty"`
	BaseImagePath     string              `json:"baseImagePath"`
	SkinTraitPath     string              `json:"skintraitPath,omitempty"`
	IsCloseup         bool                `json:"isCloseup"`
	TraitsMapping     map[string]string   `json:"traitsMapping,omitempty"`
	TagInfo           *domain.TagInfo     `json:"tagInfo,omitempty"`
	SamuraiImageIndex *int                `json:"samuraiImageIndex,omitempty"`
	Animation         map[string]any      `json:"animation,omitempty"`
}

// Animated reports whether the job asks for a GIF.
func (j RenderJob) Animated() bool {
	return len(j.Animation) > 0
}

// DelegateResult describes a successful remote render.
type DelegateResult struct {
	RenderTime time.Duration
	FrameCount int
}

// RenderDelegate hands render jobs to a remote worker.
// Any error means the caller must render locally.
type RenderDelegate interface {
	Enabled() bool
	Render(ctx context.Context, job RenderJob) ([]byte, DelegateResult, error)
}
