/*
Package compose decides which layers a render is made of and in what order.

Composition is a pure function of a normalized request: category aliases
and per-id corrections are applied first (routing.go), rarity tag rules
rewrite the trait set (tags.go), the serum history is reduced to a
SerumState by a backward-scanning state machine (serum.go), and the base
layer is chosen by precedence (base.go). Composer then walks a fixed
category order applying the suppression rules.

Trait metadata and variant probing are optional; without them every trait
is treated as static.
*/
package compose
