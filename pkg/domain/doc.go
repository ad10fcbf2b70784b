/*
Package domain contains the core data model of the atelier render engine.

It describes what a render is made of (trait sets, layers, serum history,
transforms and frames) without knowing how assets are fetched, rasterized
or stored. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - TraitSet: the equipped traits of a token, category -> trait id.
  - RenderRequest: every input that affects the pixels of a render.
  - TraitLayer: one entry of the ordered composition plan.
  - Transform / Frame: the per-layer geometry of one animation frame.
*/
package domain
