package aws

import (
	"context"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes count metrics to CloudWatch. Failures are logged and never
// returned; a metric must not fail a checkout request.
type Metrics struct {
	cw        CloudWatchAPI
	namespace string
	service   string
	log       *zap.Logger
	nowFunc   func() time.Time
}

// NewMetrics returns a Metrics publisher for the given namespace.
func NewMetrics(cw CloudWatchAPI, namespace, service string, log *zap.Logger) *Metrics {
	return &Metrics{
		cw:        cw,
		namespace: namespace,
		service:   service,
		log:       log,
		nowFunc:   time.Now,
	}
}

// Incr records a single occurrence of the named event.
func (m *Metrics) Incr(ctx context.Context, name string) {
	_, err := m.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(name),
				Timestamp:  sdkaws.Time(m.nowFunc()),
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(1),
				Dimensions: []cwtypes.Dimension{
					{Name: sdkaws.String("Service"), Value: sdkaws.String(m.service)},
				},
			},
		},
	})
	if err != nil {
		m.log.Warn("put metric data failed", zap.String("metric", name), zap.Error(err))
	}
}
