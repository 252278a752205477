package service

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/SMCodesP/imgtransform/internal/response"
	"github.com/SMCodesP/imgtransform/internal/route"
)

// HandleAPIGateway serves an API Gateway HTTP API (payload v2) event. The
// image travels base64-encoded as API Gateway requires for binary bodies.
// Every failure, including an undecodable path, answers 500.
func (t *Transformer) HandleAPIGateway(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	path := req.RawPath
	if path == "" {
		path = "/"
	}

	var env *response.Envelope
	ops, key, err := route.SplitEscaped(path)
	if err != nil {
		t.log.Info().Err(err).Str("path", path).Msg("malformed path")
		env = response.Error(http.StatusInternalServerError)
	} else {
		env = t.Transform(ctx, key, ops)
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode:      env.StatusCode,
		Headers:         env.Headers,
		Body:            env.Base64(),
		IsBase64Encoded: true,
	}, nil
}
