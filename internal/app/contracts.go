package app

// AnalyzeService is the surface the transports depend on.
type AnalyzeService interface {
	Analyze(req AnalyzeRequest) (*Report, error)
}
