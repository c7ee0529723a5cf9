package analyzedto

import "github.com/causalgo/macid/internal/app"

type AnalyzeRequest struct {
	Spec       string   `json:"spec"`
	Format     string   `json:"format,omitempty"`
	Subgame    []string `json:"subgame,omitempty"`
	FindNE     bool     `json:"find_ne,omitempty"`
	FindSPE    bool     `json:"find_spe,omitempty"`
	Incentives string   `json:"incentives,omitempty"`
}

func (r AnalyzeRequest) ToApp() app.AnalyzeRequest {
	return app.AnalyzeRequest{
		Spec:       r.Spec,
		Format:     r.Format,
		Subgame:    r.Subgame,
		FindNE:     r.FindNE,
		FindSPE:    r.FindSPE,
		Incentives: r.Incentives,
	}
}

type AnalyzeResponse struct {
	Report *app.Report `json:"report"`
}
