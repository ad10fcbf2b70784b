package http

import (
	"net/http"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

func bindTokenID(r *http.Request) (int, error) {
	var id int
	err := runtime.BindStyledParameterWithOptions("simple", "tokenId", chi.URLParam(r, "tokenId"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	return id, err
}

func bindModes(r *http.Request) (domain.Modes, error) {
	var m domain.Modes
	q := r.URL.Query()
	flags := []struct {
		name string
		dst  *bool
	}{
		{"closeup", &m.Closeup},
		{"shadow", &m.Shadow},
		{"glow", &m.Glow},
		{"bn", &m.BN},
		{"uv", &m.UV},
		{"blackout", &m.Blackout},
		{"banana", &m.Banana},
	}
	for _, f := range flags {
		if err := runtime.BindQueryParameter("form", true, false, f.name, q, f.dst); err != nil {
			return domain.Modes{}, err
		}
	}
	return m, nil
}

// animationParams are the query parameters forwarded to motion.Decode.
var animationParams = []string{"kind", "frames", "delay_ms", "target"}

func animationQuery(r *http.Request) map[string]any {
	q := r.URL.Query()
	out := make(map[string]any)
	for _, name := range animationParams {
		if q.Has(name) {
			out[name] = q.Get(name)
		}
	}
	return out
}

type invalidateParams struct {
	Token *int
	Start *int
	End   *int
	All   bool
}

func bindInvalidate(r *http.Request) (invalidateParams, error) {
	var p invalidateParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "token", q, &p.Token); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "start", q, &p.Start); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "end", q, &p.End); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "all", q, &p.All); err != nil {
		return p, err
	}
	return p, nil
}
