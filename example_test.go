package atelier_test

import (
	"fmt"
	"log"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/pkg/adapters/memory"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/fingerprint"
)

// ExampleEngine_ComputeFingerprint shows how a request maps to its artifact
// name without painting anything.
func ExampleEngine_ComputeFingerprint() {
	eng, err := atelier.New(memory.NewAssetSource(nil))
	if err != nil {
		log.Fatal(err)
	}

	req := domain.RenderRequest{
		TokenID: 42,
		Skin:    domain.Skin{ID: "2", Name: "Dark"},
		Traits:  domain.TraitSet{"EYES": "12"},
	}
	fp := eng.ComputeFingerprint(req)
	fmt.Println(fp)
	fmt.Println(fingerprint.BuildFilename(req.TokenID, fp, fingerprint.ExtPNG))
	// Output:
	// 0196c98bc6003bf0
	// 42_0196c98bc6003bf0.png
}
