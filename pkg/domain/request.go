package domain

// Serum mutation names with special composition rules.
const (
	MutationAdrianGF     = "AdrianGF"
	MutationGoldenAdrian = "GoldenAdrian"
)

// Rarity tags with special composition rules.
const (
	TagSubZero     = "SubZERO"
	TagSamuraiZero = "SamuraiZERO"
)

// SerumEvent is one entry of a token's serum history, oldest first.
type SerumEvent struct {
	Success   bool   `json:"success" yaml:"success"`
	Mutation  string `json:"mutation" yaml:"mutation"`
	Timestamp int64  `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// Skin identifies the skin assigned to a token.
// An ID of "0" means no skin is assigned.
type Skin struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// TagInfo carries the rarity tag of a token, if any.
type TagInfo struct {
	Tag    string `json:"tag" yaml:"tag"`
	Minted bool   `json:"minted" yaml:"minted"`
	// Index selects the tag image for tags that carry one (SamuraiZERO).
	Index int `json:"index" yaml:"index"`
}

// Modes are the render-affecting flags of a request.
type Modes struct {
	Closeup  bool `json:"closeup" yaml:"closeup"`
	Shadow   bool `json:"shadow" yaml:"shadow"`
	Glow     bool `json:"glow" yaml:"glow"`
	BN       bool `json:"bn" yaml:"bn"`
	UV       bool `json:"uv" yaml:"uv"`
	Blackout bool `json:"blackout" yaml:"blackout"`
	Banana   bool `json:"banana" yaml:"banana"`
}

// Any reports whether any flag is set.
func (m Modes) Any() bool {
	return m.Closeup || m.Effects()
}

// Effects reports whether any flag other than closeup is set.
func (m Modes) Effects() bool {
	return m.Shadow || m.Glow || m.BN || m.UV || m.Blackout || m.Banana
}

// TokenData is the on-chain state of a token besides its traits.
type TokenData struct {
	Generation       int  `json:"generation" yaml:"generation"`
	MutationLevel    int  `json:"mutation_level" yaml:"mutation_level"`
	CanReplicate     bool `json:"can_replicate" yaml:"can_replicate"`
	ReplicationCount int  `json:"replication_count" yaml:"replication_count"`
	HasBeenModified  bool `json:"has_been_modified" yaml:"has_been_modified"`
}

// RenderRequest holds every input that affects the pixels of a render.
// The engine never mutates a request it receives.
type RenderRequest struct {
	TokenID    int          `json:"token_id" yaml:"token_id"`
	Generation int          `json:"generation" yaml:"generation"`
	Skin       Skin         `json:"skin" yaml:"skin"`
	Serums     []SerumEvent `json:"serum_history,omitempty" yaml:"serum_history,omitempty"`
	Traits     TraitSet     `json:"traits" yaml:"traits"`
	Modes      Modes        `json:"modes" yaml:"modes"`
	Tag        *TagInfo     `json:"tag,omitempty" yaml:"tag,omitempty"`
	Messages   string       `json:"messages,omitempty" yaml:"messages,omitempty"`

	MutationLevel   int  `json:"mutation_level,omitempty" yaml:"mutation_level,omitempty"`
	CanReplicate    bool `json:"can_replicate,omitempty" yaml:"can_replicate,omitempty"`
	HasBeenModified bool `json:"has_been_modified,omitempty" yaml:"has_been_modified,omitempty"`
}

// TagName returns the tag of the request, or "" when untagged.
func (r RenderRequest) TagName() string {
	if r.Tag == nil {
		return ""
	}
	return r.Tag.Tag
}
