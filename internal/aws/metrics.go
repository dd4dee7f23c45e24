package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsEmitter publishes custom business metrics to CloudWatch.
type MetricsEmitter struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewMetricsEmitter returns an emitter writing into namespace.
func NewMetricsEmitter(client CloudWatchAPI, namespace string) *MetricsEmitter {
	return &MetricsEmitter{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count records a single counter datapoint with optional dimensions.
func (e *MetricsEmitter) Count(ctx context.Context, name string, value float64, dims map[string]string) error {
	return e.put(ctx, name, value, cwtypes.StandardUnitCount, dims)
}

// Amount records a unitless value such as an order total.
func (e *MetricsEmitter) Amount(ctx context.Context, name string, value float64, dims map[string]string) error {
	return e.put(ctx, name, value, cwtypes.StandardUnitNone, dims)
}

func (e *MetricsEmitter) put(ctx context.Context, name string, value float64, unit cwtypes.StandardUnit, dims map[string]string) error {
	if e.client == nil {
		return nil
	}
	now := e.nowFunc()
	datum := cwtypes.MetricDatum{
		MetricName: awsString(name),
		Value:      &value,
		Unit:       unit,
		Timestamp:  &now,
	}
	for k, v := range dims {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  awsString(k),
			Value: awsString(v),
		})
	}

	_, err := e.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &e.namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric data %s: %w", name, err)
	}
	return nil
}
