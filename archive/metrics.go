package archive

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel  = "error_type"
	endpointLabel = "archive_endpoint"
)

var (
	archiveSend = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_send",
		Help: "The number of session snapshots sent to the archive.",
	}, []string{
		endpointLabel,
	})

	archiveSendError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_send_errors",
		Help: "The errors that occured while sending a session snapshot to the archive.",
	}, []string{
		endpointLabel,
		errTypeLabel,
	})

	archiveSendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "archive_send_latency",
		Help: "The time to send a session snapshot to the archive.",
	}, []string{
		endpointLabel,
	})

	archiveVerificationError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_verification_errors",
		Help: "Invalid session snapshot counter.",
	}, []string{
		errTypeLabel,
	})
)

func instrumentSendLatency(endpoint string, start time.Time) {
	archiveSendLatency.With(prometheus.Labels{
		endpointLabel: endpoint,
	}).Observe(time.Since(start).Seconds())
}

func instrumentSend(endpoint string) {
	archiveSend.With(prometheus.Labels{
		endpointLabel: endpoint,
	}).Inc()
}

func instrumentSendError(endpoint string, err error) {
	archiveSendError.
		With(prometheus.Labels{
			endpointLabel: endpoint,
			errTypeLabel:  errors.Type(err),
		}).
		Inc()
}

func instrumentVerificationError(err error) {
	archiveVerificationError.
		With(prometheus.Labels{
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}
