package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"air-quality-api/pkg/lambda"
)

// handler runs one collection pass. The function is triggered by a
// 15-minute scheduled event, not by the API gateway.
func handler(ctx context.Context, event events.CloudWatchEvent) (string, error) {
	container, err := lambda.GetConnectionManager().GetContainer(ctx)
	if err != nil {
		return "", err
	}

	stats, err := container.CollectorService.Run(ctx)
	if err != nil {
		container.Logger.WithField("error", err.Error()).Error("Collection run failed")
		return "", err
	}

	body, err := json.Marshal(stats)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

func main() {
	awslambda.Start(handler)
}
