/*
Package ports defines the driven ports (interfaces) of the atelier render engine.

These interfaces decouple the composition and caching logic from the outside
world, so the same engine can run against HTTP asset hosts or in-memory
fixtures, and persist artifacts to the filesystem, Redis or SQLite.

# Key Interfaces

  - TraitSource: the on-chain read model (traits, serum history, skin, tag).
  - AssetSource: fetches vector assets and probes animated variants.
  - TraitCatalog: static trait metadata.
  - Rasterizer / GIFEncoder: the raster pipeline.
  - ObjectStore / ByteCache: persistent and shared cache tiers.
  - DistributedLocker: render coordination across replicas.
  - RenderDelegate: optional remote rendering.
*/
package ports
