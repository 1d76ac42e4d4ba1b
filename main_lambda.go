//go:build lambda

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-logr/stdr"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// planRequest is the Function URL body. The config is decoded over the
// defaults, so fields left out keep them; a catalog path is not accepted.
type planRequest struct {
	Command string   `json:"command"` // plan (default), candidates or cook
	Berries []string `json:"berries"` // cook only
	Config  Config   `json:"config"`
}

var logger = stdr.New(log.New(os.Stderr, "", 0)).WithName("poffin")

func handler(_ context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}

	req := planRequest{Config: DefaultConfig()}
	if body != "" {
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return errResp(400, "invalid JSON: "+err.Error())
		}
	}
	if req.Config.Catalog != "" {
		return errResp(400, "catalog files are not available here")
	}
	cfg := req.Config

	var (
		resp any
		err  error
	)
	switch req.Command {
	case "", "plan":
		resp, err = runPlan(cfg, logger)
	case "candidates":
		resp, err = runCandidates(cfg, logger)
	case "cook":
		resp, err = cookNamed(cfg, req.Berries)
	default:
		return errResp(400, "unknown command "+req.Command)
	}
	if err != nil {
		if errors.Is(err, errConfigInvalid) {
			return errResp(400, err.Error())
		}
		return errResp(422, err.Error())
	}

	respJSON, _ := json.Marshal(resp)
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func main() {
	lambda.Start(handler)
}
