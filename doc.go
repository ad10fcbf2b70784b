/*
Package atelier is a deterministic render engine for layered character
portraits and short animations.

It turns an equipped-trait state into an ordered stack of vector layers,
paints the stack onto a fixed canvas and caches the result under a content
fingerprint, so identical inputs are drawn once.

# Concept

A render goes through four stages:

  - Composition: pkg/compose resolves the base layer, serum outcome, rarity
    tags and category rules into an ordered layer plan.
  - Fingerprint: pkg/fingerprint hashes the normalized inputs; the hash names
    the artifact and gates every cache tier.
  - Painting: pkg/composite rasterizes the layers, applies per-frame motion
    transforms (pkg/motion, pkg/framesync) and the mode effects.
  - Caching: pkg/cache serves memory, shared (Redis) and persistent
    (file, Redis, SQLite) tiers, with per-key render coordination.

External collaborators (asset host, chain read model, trait catalog,
remote renderer) are ports, implemented under pkg/adapters.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/atelier"
		"github.com/aretw0/atelier/pkg/adapters/httpsource"
		"github.com/aretw0/atelier/pkg/domain"
	)

	func main() {
		eng, err := atelier.New(httpsource.New("https://assets.example.com"))
		if err != nil {
			log.Fatal(err)
		}

		req := domain.RenderRequest{
			TokenID:    42,
			Generation: 0,
			Skin:       domain.Skin{ID: "2", Name: "Dark"},
			Traits:     domain.TraitSet{"EYES": "12", "TOP": "60"},
		}
		png, err := eng.ComposeStaticRender(context.Background(), req)
		if err != nil {
			log.Fatal(err)
		}
		_ = os.WriteFile(eng.ComputeFingerprint(req)+".png", png, 0o644)
	}
*/
package atelier
