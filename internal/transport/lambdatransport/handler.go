package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/causalgo/macid/internal/app"
	"github.com/causalgo/macid/internal/transport/analyzedto"
)

type Handler struct {
	svc app.AnalyzeService
}

func NewHandler(svc app.AnalyzeService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Analyze(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid body", "details": err.Error()}), nil
	}

	var in analyzedto.AnalyzeRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid json", "details": err.Error()}), nil
	}

	report, err := h.svc.Analyze(in.ToApp())
	if err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "analyze failed", "details": err.Error()}), nil
	}
	return jsonResp(http.StatusOK, analyzedto.AnalyzeResponse{Report: report}), nil
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(b),
	}
}
